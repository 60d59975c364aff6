// Package contact accepts customer inquiries.
package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
	"github.com/angelmondragon/sweetdelights-backend/pkg/simulate"
	"github.com/angelmondragon/sweetdelights-backend/pkg/validate"
	"github.com/google/uuid"
)

// Inquiry is the contact form.
type Inquiry struct {
	Name    string `json:"name" validate:"min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"min=10"`
	Subject string `json:"subject" validate:"min=5"`
	Message string `json:"message" validate:"min=20"`
}

// Acknowledgement confirms an inquiry was received.
type Acknowledgement struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
	Message    string    `json:"message"`
}

// Channel is one way to reach the bakery.
type Channel struct {
	Title   string   `json:"title"`
	Details []string `json:"details"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Info is the static half of the contact page.
type Info struct {
	Channels []Channel `json:"channels"`
	FAQs     []FAQ     `json:"faqs"`
}

type Service interface {
	Submit(ctx context.Context, inquiry Inquiry) (*Acknowledgement, error)
	Info() Info
}

type service struct {
	delay   time.Duration
	logg    *logger.Logger
	metrics *metrics.Storefront
	now     func() time.Time
}

func NewService(delay time.Duration, logg *logger.Logger, m *metrics.Storefront) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{delay: delay, logg: logg, metrics: m, now: time.Now}, nil
}

func (s *service) Submit(ctx context.Context, inquiry Inquiry) (*Acknowledgement, error) {
	if err := validate.Struct(inquiry); err != nil {
		return nil, err
	}
	// The inquiry counts as sent once submitted, even if the client leaves.
	ctx = context.WithoutCancel(ctx)
	if err := simulate.Delay(ctx, s.delay); err != nil {
		return nil, err
	}
	ack := &Acknowledgement{
		ID:         uuid.NewString(),
		ReceivedAt: s.now().UTC(),
		Message:    "Thank you for reaching out! We'll get back to you within 24 hours.",
	}
	s.metrics.IncContactInquiry()
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"inquiry_id": ack.ID,
		"subject":    inquiry.Subject,
	}), "contact.inquiry_received")
	return ack, nil
}

func (s *service) Info() Info {
	return Info{
		Channels: []Channel{
			{Title: "Phone", Details: []string{"(123) 456-7890", "Mon-Fri: 9am-6pm"}},
			{Title: "Email", Details: []string{"info@sweetdelights.com", "We reply within 24 hours"}},
			{Title: "Address", Details: []string{"123 Bakery Lane", "Sweet City, SC 12345"}},
			{Title: "Business Hours", Details: []string{"Mon-Fri: 8am-7pm", "Sat-Sun: 9am-5pm"}},
		},
		FAQs: []FAQ{
			{Question: "How far in advance should I order?", Answer: "We recommend ordering at least 3-5 days in advance for custom cakes. For standard cakes, 24-48 hours notice is preferred."},
			{Question: "Do you offer delivery?", Answer: "Yes! We offer local delivery within a 25-mile radius. Free delivery on orders over $75."},
			{Question: "Can I customize any cake?", Answer: "Absolutely! All our cakes can be customized with your choice of flavors, frostings, and decorations."},
			{Question: "What are your dietary options?", Answer: "We offer vegan, gluten-free, and nut-free options. Please specify your requirements when ordering."},
		},
	}
}
