package checkout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/sweetdelights-backend/internal/pricing"
	"github.com/angelmondragon/sweetdelights-backend/internal/store"
	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetdelights-backend/pkg/errors"
	"github.com/angelmondragon/sweetdelights-backend/pkg/logger"
	"github.com/angelmondragon/sweetdelights-backend/pkg/metrics"
	"github.com/angelmondragon/sweetdelights-backend/pkg/simulate"
	"github.com/angelmondragon/sweetdelights-backend/pkg/validate"
)

// ConfirmationDeliveryWindow is what the confirmation page promises regardless of method.
const ConfirmationDeliveryWindow = "2-3 business days"

type cartStore interface {
	Load(ctx context.Context, sessionID string) (store.State, error)
	ClearCart(ctx context.Context, sessionID string) (store.State, error)
}

// Service drives the two-step checkout for a session.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	SubmitShipping(ctx context.Context, sessionID string, input ShippingInput) (*View, error)
	Back(ctx context.Context, sessionID string) (*View, error)
	SubmitPayment(ctx context.Context, sessionID string, input PaymentDetails) (*Confirmation, error)
}

// ShippingInput is the step one form plus the chosen delivery speed.
type ShippingInput struct {
	ShippingDetails
	ShippingMethod string `json:"shippingMethod"`
}

// PaymentDetails is the step two form. Card data is validated and discarded.
type PaymentDetails struct {
	CardNumber string `json:"cardNumber" validate:"min=16"`
	CardName   string `json:"cardName" validate:"min=2"`
	ExpiryDate string `json:"expiryDate" validate:"expiry"`
	CVV        string `json:"cvv" validate:"min=3"`
}

// View is the checkout page model.
type View struct {
	Step            enums.CheckoutStep       `json:"step"`
	StepNumber      int                      `json:"stepNumber"`
	ShippingMethod  enums.ShippingMethod     `json:"shippingMethod"`
	Shipping        *ShippingDetails         `json:"shipping,omitempty"`
	Prefill         *store.Address           `json:"prefill,omitempty"`
	Items           []store.CartItem         `json:"items"`
	ItemCount       int                      `json:"itemCount"`
	Quote           pricing.Quote            `json:"quote"`
	ShippingOptions []pricing.ShippingOption `json:"shippingOptions"`
}

// Confirmation is returned once the simulated payment completes.
type Confirmation struct {
	Reference         string            `json:"reference"`
	Status            enums.OrderStatus `json:"status"`
	EstimatedDelivery string            `json:"estimatedDelivery"`
	Email             string            `json:"email"`
	ItemCount         int               `json:"itemCount"`
	Quote             pricing.Quote     `json:"quote"`
	PlacedAt          time.Time         `json:"placedAt"`
}

type service struct {
	store        cartStore
	progress     ProgressRepository
	paymentDelay time.Duration
	logg         *logger.Logger
	metrics      *metrics.Storefront
	now          func() time.Time
}

// NewService builds the checkout service.
func NewService(cart cartStore, progress ProgressRepository, paymentDelay time.Duration, logg *logger.Logger, m *metrics.Storefront) (Service, error) {
	if cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:        cart,
		progress:     progress,
		paymentDelay: paymentDelay,
		logg:         logg,
		metrics:      m,
		now:          time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	st, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return buildView(st, p), nil
}

func (s *service) SubmitShipping(ctx context.Context, sessionID string, input ShippingInput) (*View, error) {
	st, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	method, err := enums.ParseShippingMethod(input.ShippingMethod)
	if err != nil {
		s.metrics.IncCheckoutStep(enums.CheckoutStepShipping.String(), "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{
			"shippingMethod": "must be one of: standard express overnight",
		})
	}
	if err := validate.Struct(input.ShippingDetails); err != nil {
		s.metrics.IncCheckoutStep(enums.CheckoutStepShipping.String(), "rejected")
		return nil, err
	}

	details := input.ShippingDetails
	p := Progress{Step: enums.CheckoutStepPayment, ShippingMethod: method, Shipping: &details}
	if err := s.progress.Save(ctx, sessionID, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout progress")
	}
	s.metrics.IncCheckoutStep(enums.CheckoutStepShipping.String(), "accepted")
	return buildView(st, p), nil
}

func (s *service) Back(ctx context.Context, sessionID string) (*View, error) {
	st, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p.Step = enums.CheckoutStepShipping
	if err := s.progress.Save(ctx, sessionID, p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout progress")
	}
	return buildView(st, p), nil
}

func (s *service) SubmitPayment(ctx context.Context, sessionID string, input PaymentDetails) (*Confirmation, error) {
	st, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if p.Step != enums.CheckoutStepPayment || p.Shipping == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping details must be submitted first").WithDetails(map[string]string{
			"step": p.Step.String(),
		})
	}
	if err := validate.Struct(input); err != nil {
		s.metrics.IncCheckoutStep(enums.CheckoutStepPayment.String(), "rejected")
		return nil, err
	}

	quote := pricing.CheckoutQuote(st.CartTotal(), p.ShippingMethod)
	itemCount := st.ItemCount()

	// A client that leaves mid-payment still gets its order placed.
	ctx = context.WithoutCancel(ctx)
	started := s.now()
	if err := simulate.Delay(ctx, s.paymentDelay); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment processing")
	}
	s.metrics.ObservePayment(p.ShippingMethod.String(), s.now().Sub(started))

	if _, err := s.store.ClearCart(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := s.progress.Delete(ctx, sessionID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.progress_cleanup_failed")
	}
	s.metrics.IncCheckoutStep(enums.CheckoutStepPayment.String(), "accepted")

	placedAt := s.now()
	confirmation := &Confirmation{
		Reference:         reference(placedAt),
		Status:            enums.OrderStatusProcessing,
		EstimatedDelivery: ConfirmationDeliveryWindow,
		Email:             p.Shipping.Email,
		ItemCount:         itemCount,
		Quote:             quote,
		PlacedAt:          placedAt.UTC(),
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"reference":       confirmation.Reference,
		"total":           quote.Total.String(),
		"shipping_method": p.ShippingMethod.String(),
	}), "checkout.payment_completed")
	return confirmation, nil
}

func (s *service) loadCart(ctx context.Context, sessionID string) (store.State, error) {
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return store.State{}, err
	}
	if len(st.Cart) == 0 {
		return store.State{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty").WithDetails(map[string]string{
			"redirect": "/cart",
		})
	}
	return st, nil
}

func (s *service) loadProgress(ctx context.Context, sessionID string) (Progress, error) {
	p, err := s.progress.Get(ctx, sessionID)
	if err != nil {
		return Progress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout progress")
	}
	return p, nil
}

func buildView(st store.State, p Progress) *View {
	v := &View{
		Step:            p.Step,
		StepNumber:      p.Step.Number(),
		ShippingMethod:  p.ShippingMethod,
		Shipping:        p.Shipping,
		Items:           st.Cart,
		ItemCount:       st.ItemCount(),
		Quote:           pricing.CheckoutQuote(st.CartTotal(), p.ShippingMethod),
		ShippingOptions: pricing.ShippingOptions(),
	}
	if p.Shipping == nil && st.User != nil && len(st.User.Addresses) > 0 {
		addr := st.User.Addresses[0]
		v.Prefill = &addr
	}
	return v
}

// reference is "ORD-" plus the last six digits of the millisecond clock.
func reference(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ORD-" + ms
}
