package esewa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/logging"
)

// Fields a response signature must cover before it is trusted.
var requiredSignedFields = []string{"status", "total_amount", "transaction_uuid", "product_code"}

var (
	ErrUnsigned            = errors.New("payment response is not signed")
	ErrIncompleteSignature = errors.New("signature does not cover required fields")
	ErrSignatureMismatch   = errors.New("payment response signature mismatch")
	ErrProductCodeMismatch = errors.New("payment response is for another merchant")
	ErrAmountMismatch      = errors.New("payment amount differs from the pending order")
	ErrNotPending          = errors.New("payment response does not match the pending payment")
	ErrPendingUnavailable  = errors.New("pending payment could not be loaded")
)

// correlation describes how a callback relates to the session's pending
// payment record.
type correlation int

const (
	correlated correlation = iota
	// noPending means nothing is awaiting a callback, so the response was
	// already applied or never belonged to this session.
	noPending
	otherPending
	pendingUnavailable
)

// ResultKind classifies what processing a callback did.
type ResultKind string

const (
	// ResultNone means the URL carried no callback at all.
	ResultNone         ResultKind = "none"
	ResultSucceeded    ResultKind = "succeeded"
	ResultNotCompleted ResultKind = "not_completed"
	ResultUnverified   ResultKind = "unverified"
	ResultInvalid      ResultKind = "invalid"
	ResultDuplicate    ResultKind = "duplicate"
)

// Result is the outcome of one processed return navigation.
type Result struct {
	Kind            ResultKind
	Status          Status
	Message         string
	OrderID         order.ID
	TransactionUUID string
	TransactionCode string
	TotalAmount     decimal.Decimal
	// LowTrust marks outcomes taken from the unsigned status flag.
	LowTrust    bool
	CartCleared bool
	// CleanURL is the return URL without callback parameters.
	CleanURL string
	Err      error
}

// Settled reports whether the result should be announced to the rest of the
// system as a final payment outcome.
func (r Result) Settled() bool {
	switch r.Kind {
	case ResultSucceeded:
		return true
	case ResultNotCompleted:
		return r.Status.Terminal()
	}
	return false
}

// Cart is the part of the cart store the processor needs.
type Cart interface {
	Clear(ctx context.Context)
}

// ProcessorConfig holds the merchant settings for callback handling.
type ProcessorConfig struct {
	SecretKey             string
	ProductCode           string
	AllowUnsignedFallback bool
	LatchWindow           time.Duration
}

// Processor turns an eSewa return URL into a Result and applies it to the
// session's cart at most once per latch window.
type Processor struct {
	signer        *Signer
	productCode   string
	allowUnsigned bool
	latch         *Latch
	pending       *PendingStore
	logger        *zap.Logger
}

// ProcessorOption customises a Processor.
type ProcessorOption func(*processorOptions)

type processorOptions struct {
	now    func() time.Time
	logger *zap.Logger
}

// WithProcessorClock sets the clock that drives the latch.
func WithProcessorClock(now func() time.Time) ProcessorOption {
	return func(o *processorOptions) {
		o.now = now
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(logger *zap.Logger) ProcessorOption {
	return func(o *processorOptions) {
		o.logger = logger
	}
}

func NewProcessor(cfg ProcessorConfig, pending *PendingStore, opts ...ProcessorOption) *Processor {
	o := processorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	window := cfg.LatchWindow
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Processor{
		signer:        NewSigner(cfg.SecretKey),
		productCode:   cfg.ProductCode,
		allowUnsigned: cfg.AllowUnsignedFallback,
		latch:         NewLatch(window, o.now),
		pending:       pending,
		logger:        logging.Component(o.logger, "esewa"),
	}
}

// Process handles one return navigation for sessionID. Failures never escape
// as errors; they are reported through the Result kind. A response is only
// applied while the session's pending record names its transaction, and that
// record is removed once the outcome is final, so a replayed response is
// reported as a duplicate even after the latch window.
func (p *Processor) Process(ctx context.Context, sessionID, callbackURL string, cart Cart) Result {
	clean := CleanURL(callbackURL)
	log := p.logger.With(zap.String("session_id", sessionID))

	token, source := ExtractToken(callbackURL)
	if token == "" {
		return p.processFallback(ctx, sessionID, callbackURL, cart, clean, log)
	}

	resp, err := DecodeResponse(token)
	if err != nil {
		log.Warn("undecodable payment response", zap.String("source", string(source)), zap.Error(err))
		return Result{Kind: ResultInvalid, Message: msgInvalid, CleanURL: clean, Err: err}
	}

	latchKey := resp.TransactionUUID
	if latchKey == "" {
		latchKey = "signature:" + resp.Signature
	}
	if !p.latch.Acquire(sessionID + "::" + latchKey) {
		log.Info("duplicate payment callback ignored", zap.String("transaction_uuid", resp.TransactionUUID))
		return Result{
			Kind:            ResultDuplicate,
			Status:          resp.Status,
			Message:         msgDuplicate,
			TransactionUUID: resp.TransactionUUID,
			CleanURL:        clean,
		}
	}

	result := Result{
		Status:          resp.Status,
		TransactionUUID: resp.TransactionUUID,
		TransactionCode: resp.TransactionCode,
		CleanURL:        clean,
	}
	if amount, err := resp.Amount(); err == nil {
		result.TotalAmount = amount
	}

	if err := p.verify(resp); err != nil {
		log.Warn("payment response failed verification",
			zap.String("transaction_uuid", resp.TransactionUUID),
			zap.String("claimed_status", string(resp.Status)),
			zap.Error(err),
		)
		result.Kind = ResultUnverified
		result.Message = msgUnverified
		result.Err = err
		return result
	}

	pending, match, err := p.correlate(ctx, sessionID, resp.TransactionUUID, log)
	switch match {
	case noPending:
		log.Info("no pending payment for verified response, not applied",
			zap.String("transaction_uuid", resp.TransactionUUID),
			zap.String("status", string(resp.Status)),
		)
		result.Kind = ResultDuplicate
		result.Message = msgDuplicate
		return result
	case otherPending:
		result.Kind = ResultUnverified
		result.Message = msgUnverified
		result.Err = fmt.Errorf("%w: %s", ErrNotPending, resp.TransactionUUID)
		return result
	case pendingUnavailable:
		// Let a reload retry once the store is back.
		p.latch.Release(sessionID + "::" + latchKey)
		result.Kind = ResultUnverified
		result.Message = msgUnconfirmed
		result.Err = err
		return result
	}

	result.OrderID = pending.OrderID
	if !pending.TotalAmount.Equal(result.TotalAmount) {
		log.Warn("verified payment amount differs from pending order",
			zap.String("order_id", string(pending.OrderID)),
			zap.String("expected", pending.TotalAmount.String()),
			zap.String("received", resp.TotalAmount),
		)
		result.Kind = ResultUnverified
		result.Message = msgUnverified
		result.Err = fmt.Errorf("%w: expected %s, got %s", ErrAmountMismatch, pending.TotalAmount, resp.TotalAmount)
		return result
	}

	switch {
	case resp.Status == StatusComplete:
		cart.Clear(ctx)
		result.Kind = ResultSucceeded
		result.CartCleared = true
	default:
		result.Kind = ResultNotCompleted
	}
	result.Message = resp.Status.Message()

	if resp.Status.Terminal() || !resp.Status.Known() {
		p.forget(ctx, sessionID, log)
	}

	log.Info("payment callback applied",
		zap.String("kind", string(result.Kind)),
		zap.String("status", string(resp.Status)),
		zap.String("transaction_uuid", resp.TransactionUUID),
		zap.String("order_id", string(result.OrderID)),
	)
	return result
}

// processFallback handles the unsigned status=success|failure flag.
func (p *Processor) processFallback(ctx context.Context, sessionID, callbackURL string, cart Cart, clean string, log *zap.Logger) Result {
	status := FallbackStatus(callbackURL)
	if status == "" {
		return Result{Kind: ResultNone, CleanURL: clean}
	}
	if !p.latch.Acquire(sessionID + "::status:" + status) {
		return Result{Kind: ResultDuplicate, Message: msgDuplicate, LowTrust: true, CleanURL: clean}
	}

	if status == "failure" {
		return Result{Kind: ResultNotCompleted, Message: msgFailed, LowTrust: true, CleanURL: clean}
	}

	if !p.allowUnsigned {
		log.Warn("unsigned success flag without a payment response")
		return Result{Kind: ResultUnverified, Message: msgUnconfirmed, LowTrust: true, CleanURL: clean, Err: ErrUnsigned}
	}

	pending, match, err := p.correlate(ctx, sessionID, "", log)
	switch match {
	case noPending:
		return Result{Kind: ResultDuplicate, Message: msgDuplicate, LowTrust: true, CleanURL: clean}
	case pendingUnavailable:
		p.latch.Release(sessionID + "::status:" + status)
		return Result{Kind: ResultUnverified, Message: msgUnconfirmed, LowTrust: true, CleanURL: clean, Err: err}
	}

	result := Result{
		Kind:            ResultSucceeded,
		Status:          StatusComplete,
		Message:         StatusComplete.Message(),
		OrderID:         pending.OrderID,
		TransactionUUID: pending.TransactionUUID,
		TotalAmount:     pending.TotalAmount,
		LowTrust:        true,
		CartCleared:     true,
		CleanURL:        clean,
	}
	p.forget(ctx, sessionID, log)
	cart.Clear(ctx)
	log.Warn("applied unsigned payment success", zap.String("order_id", string(result.OrderID)))
	return result
}

func (p *Processor) verify(resp Response) error {
	names := resp.SignedFields()
	if len(names) == 0 || resp.Signature == "" {
		return ErrUnsigned
	}
	covered := make(map[string]bool, len(names))
	for _, name := range names {
		covered[name] = true
	}
	for _, name := range requiredSignedFields {
		if !covered[name] {
			return fmt.Errorf("%w: %s", ErrIncompleteSignature, name)
		}
	}
	if !p.signer.VerifyFields(names, resp.fields, resp.Signature) {
		return ErrSignatureMismatch
	}
	if resp.ProductCode != p.productCode {
		return fmt.Errorf("%w: %s", ErrProductCodeMismatch, resp.ProductCode)
	}
	return nil
}

// correlate loads the pending record and reports how it relates to
// transactionUUID. An empty transactionUUID matches any record.
func (p *Processor) correlate(ctx context.Context, sessionID, transactionUUID string, log *zap.Logger) (PendingPayment, correlation, error) {
	if p.pending == nil {
		return PendingPayment{}, noPending, nil
	}
	pending, ok, err := p.pending.Load(ctx, sessionID)
	if err != nil {
		log.Error("failed to load pending payment", zap.Error(err))
		return PendingPayment{}, pendingUnavailable, fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}
	if !ok {
		return PendingPayment{}, noPending, nil
	}
	if transactionUUID != "" && pending.TransactionUUID != transactionUUID {
		log.Warn("callback does not match the pending payment",
			zap.String("pending_transaction_uuid", pending.TransactionUUID),
			zap.String("transaction_uuid", transactionUUID),
		)
		return pending, otherPending, nil
	}
	return pending, correlated, nil
}

func (p *Processor) forget(ctx context.Context, sessionID string, log *zap.Logger) {
	if err := p.pending.Delete(ctx, sessionID); err != nil {
		log.Error("failed to delete pending payment", zap.Error(err))
	}
}
