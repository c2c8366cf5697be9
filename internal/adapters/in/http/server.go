package http

import (
	"context"
	"log/slog"
	"net/http"

	"parcellocker/internal/api/servers"
	"parcellocker/internal/core/application/usecases/commands"
	"parcellocker/internal/core/application/usecases/queries"
	"parcellocker/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Use case contracts the server depends on. The command and query handlers
// satisfy them directly.
type (
	InitBoardHandler interface {
		Handle(ctx context.Context, command commands.InitBoardCommand) (commands.InitBoardResult, error)
	}
	StartDeliveryHandler interface {
		Handle(ctx context.Context, command commands.StartDeliveryCommand) (commands.StartDeliveryResult, error)
	}
	RequestPickupHandler interface {
		Handle(ctx context.Context, command commands.RequestPickupCommand) (commands.RequestPickupResult, error)
	}
	CheckDeliveryPaymentHandler interface {
		Handle(ctx context.Context, command commands.CheckDeliveryPaymentCommand) (commands.CheckDeliveryPaymentResult, error)
	}
	CancelDeliveryHandler interface {
		Handle(ctx context.Context, command commands.CancelDeliveryCommand) (commands.ChangeDeliveryResult, error)
	}
	UpdateDeliveryStatusHandler interface {
		Handle(ctx context.Context, command commands.UpdateDeliveryStatusCommand) (commands.ChangeDeliveryResult, error)
	}
	CheckInvoiceHandler interface {
		Handle(ctx context.Context, command commands.CheckInvoiceCommand) (commands.VerifyPaymentResult, error)
	}
	SendSMSHandler interface {
		Handle(ctx context.Context, command commands.SendSMSCommand) error
	}
	LockerStatusHandler interface {
		Handle(ctx context.Context, query queries.GetLockerStatusQuery) (*queries.GetLockerStatusResponse, error)
	}
	DeliveriesHandler interface {
		Handle(ctx context.Context, query queries.GetDeliveriesQuery) ([]queries.DeliveryItem, error)
	}
)

// Handlers groups the use cases exposed over HTTP.
type Handlers struct {
	InitBoard            InitBoardHandler
	StartDelivery        StartDeliveryHandler
	RequestPickup        RequestPickupHandler
	CheckDeliveryPayment CheckDeliveryPaymentHandler
	CancelDelivery       CancelDeliveryHandler
	UpdateDeliveryStatus UpdateDeliveryStatusHandler
	CreateInvoice        commands.InvoiceCreator
	VerifyPayment        commands.PaymentVerifier
	CheckInvoice         CheckInvoiceHandler
	SendSMS              SendSMSHandler
	LockerStatus         LockerStatusHandler
	Deliveries           DeliveriesHandler
}

// Server implements servers.ServerInterface on top of the application use
// cases. It only translates between wire types and commands.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

var _ servers.ServerInterface = (*Server)(nil)

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

func (s *Server) GetHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, servers.Health{Status: "ok"})
}

// InitBoard handles POST /api/v1/boards.
func (s *Server) InitBoard(ctx echo.Context) error {
	var req servers.InitBoardRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewInitBoardCommand(req.BoardId, req.Location, req.LockerCount)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.InitBoard.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, servers.InitBoardResponse{
		BoardId:        res.BoardID,
		LockersCreated: res.LockersCreated,
		LockersTotal:   res.LockersTotal,
	})
}

// GetBoardLockers handles GET /api/v1/boards/:boardId/lockers.
func (s *Server) GetBoardLockers(ctx echo.Context, boardID string) error {
	query, err := queries.NewGetLockerStatusQuery(boardID)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.LockerStatus.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	lockers := make([]servers.Locker, len(res.Lockers))
	for i, l := range res.Lockers {
		lockers[i] = servers.Locker{Number: l.Number, Index: l.Index, Status: l.Status}
	}
	return ctx.JSON(http.StatusOK, servers.BoardLockers{
		BoardId:   res.BoardID,
		Location:  res.Location,
		Status:    res.ContainerStatus,
		Available: res.Available(),
		Lockers:   lockers,
	})
}

// ListDeliveries handles GET /api/v1/deliveries.
func (s *Server) ListDeliveries(ctx echo.Context, params servers.ListDeliveriesParams) error {
	query, err := queries.NewGetDeliveriesQuery(deref(params.BoardId), deref(params.Status), deref(params.Limit))
	if err != nil {
		return s.fail(ctx, err)
	}
	items, err := s.h.Deliveries.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]servers.Delivery, len(items))
	for i, item := range items {
		response[i] = servers.Delivery{
			Id:             item.ID.Bytes(),
			BoardId:        item.BoardID,
			LockerNumber:   item.LockerNumber,
			LockerIndex:    item.LockerIndex,
			RecipientPhone: item.Recipient,
			Status:         item.Status,
			PaymentStatus:  item.PaymentStatus,
			CreatedAt:      item.CreatedAt,
			PickedUpAt:     item.PickedUpAt,
			CancelledAt:    item.CancelledAt,
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// StartDelivery handles POST /api/v1/deliveries.
func (s *Server) StartDelivery(ctx echo.Context) error {
	var req servers.StartDeliveryRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewStartDeliveryCommand(req.BoardId, req.LockerNumber, req.RecipientPhone)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.StartDelivery.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, servers.StartDeliveryResponse{
		OrderId:      res.OrderID.Bytes(),
		PickupCode:   res.PickupCode,
		BoardId:      res.BoardID,
		LockerNumber: res.LockerNumber,
		LockerIndex:  res.LockerIndex,
	})
}

// RequestPickup handles POST /api/v1/deliveries/pickup.
func (s *Server) RequestPickup(ctx echo.Context) error {
	var req servers.PickupCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewRequestPickupCommand(req.PickupCode)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.RequestPickup.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := servers.PickupResponse{
		OrderId:         res.OrderID.Bytes(),
		Unlocked:        res.Unlocked,
		PaymentRequired: res.PaymentRequired,
		Amount:          res.Amount,
	}
	if res.Unlocked {
		response.BoardId = res.BoardID
		response.LockerNumber = res.LockerNumber
		response.LockerIndex = &res.LockerIndex
	}
	if res.Invoice != nil {
		response.Invoice = toInvoice(*res.Invoice)
	}
	return ctx.JSON(http.StatusOK, response)
}

// CheckDeliveryPayment handles POST /api/v1/deliveries/check-payment.
func (s *Server) CheckDeliveryPayment(ctx echo.Context) error {
	var req servers.PickupCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCheckDeliveryPaymentCommand(req.PickupCode)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.CheckDeliveryPayment.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := servers.DeliveryPaymentStatus{
		OrderId:       res.OrderID.Bytes(),
		Status:        res.Status.String(),
		PaymentStatus: res.PaymentStatus.String(),
	}
	if res.BoardID != "" {
		response.BoardId = res.BoardID
		response.LockerNumber = res.LockerNumber
		response.LockerIndex = &res.LockerIndex
	}
	return ctx.JSON(http.StatusOK, response)
}

// CancelDelivery handles POST /api/v1/deliveries/:code/cancel.
func (s *Server) CancelDelivery(ctx echo.Context, code string) error {
	var req servers.CancelDeliveryRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&req); err != nil {
			return s.badRequest(ctx, "Invalid request body")
		}
	}

	cmd, err := commands.NewCancelDeliveryCommand(code, req.Reason)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.CancelDelivery.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.DeliveryState{OrderId: res.OrderID.Bytes(), Status: res.Status.String()})
}

// UpdateDeliveryStatus handles PUT /api/v1/deliveries/:code/status.
func (s *Server) UpdateDeliveryStatus(ctx echo.Context, code string) error {
	var req servers.UpdateDeliveryStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewUpdateDeliveryStatusCommand(code, req.Status)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.UpdateDeliveryStatus.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.DeliveryState{OrderId: res.OrderID.Bytes(), Status: res.Status.String()})
}

// CreateInvoice handles POST /api/v1/payments/invoice.
func (s *Server) CreateInvoice(ctx echo.Context) error {
	var req servers.CreateInvoiceRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	orderID, err := kernel.UUIDFromBytes(req.OrderId[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	cmd, err := commands.NewCreateInvoiceCommand(orderID, req.Amount)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.CreateInvoice.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toInvoice(res))
}

// VerifyPayment handles the gateway callback on
// /api/v1/payments/verify/:paymentId/:orderId. The gateway may call it any
// number of times; only the first settled call has side effects.
func (s *Server) VerifyPayment(ctx echo.Context, paymentID, orderID openapi_types.UUID) error {
	pid, err := kernel.UUIDFromBytes(paymentID[:])
	if err != nil {
		return s.fail(ctx, err)
	}
	oid, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewVerifyPaymentCommand(pid, oid)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.VerifyPayment.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toPaymentState(res))
}

// CheckInvoice handles GET /api/v1/payments/check/:invoiceId.
func (s *Server) CheckInvoice(ctx echo.Context, invoiceID string) error {
	cmd, err := commands.NewCheckInvoiceCommand(invoiceID)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.CheckInvoice.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toPaymentState(res))
}

// SendSms handles POST /api/v1/sms.
func (s *Server) SendSms(ctx echo.Context) error {
	var req servers.SendSmsRequest
	if err := ctx.Bind(&req); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewSendSMSCommand(req.To, req.Text)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err := s.h.SendSMS.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusAccepted)
}

func toInvoice(res commands.CreateInvoiceResult) *servers.Invoice {
	links := make([]servers.Deeplink, len(res.Invoice.Deeplinks))
	for i, l := range res.Invoice.Deeplinks {
		links[i] = servers.Deeplink{Name: l.Name, Description: l.Description, Logo: l.Logo, Link: l.Link}
	}
	return &servers.Invoice{
		PaymentId: res.PaymentID.Bytes(),
		OrderId:   res.OrderID.Bytes(),
		Amount:    res.Amount,
		InvoiceId: res.Invoice.ID,
		QrText:    res.Invoice.QRText,
		QrImage:   res.Invoice.QRImage,
		ShortUrl:  res.Invoice.ShortURL,
		Deeplinks: links,
	}
}

func toPaymentState(res commands.VerifyPaymentResult) servers.PaymentState {
	return servers.PaymentState{
		PaymentId: res.PaymentID.Bytes(),
		OrderId:   res.OrderID.Bytes(),
		Status:    res.Status.String(),
		Paid:      res.IsPaid(),
		PaidAt:    res.PaidAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
