// Package servers is the HTTP contract of the parcel locker API: the wire
// types, the ServerInterface implemented by the http adapter, route
// registration with typed parameter binding, and the OpenAPI document the
// routes are validated against (openapi.yaml).
package servers

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/swaggo/swag"
)

//go:embed openapi.yaml
var specYAML []byte

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Health struct {
	Status string `json:"status"`
}

type InitBoardRequest struct {
	BoardId     string `json:"boardId"`
	Location    string `json:"location,omitempty"`
	LockerCount int    `json:"lockerCount"`
}

type InitBoardResponse struct {
	BoardId        string `json:"boardId"`
	LockersCreated int    `json:"lockersCreated"`
	LockersTotal   int    `json:"lockersTotal"`
}

type Locker struct {
	Number string `json:"number"`
	Index  int    `json:"index"`
	Status string `json:"status"`
}

type BoardLockers struct {
	BoardId   string   `json:"boardId"`
	Location  string   `json:"location,omitempty"`
	Status    string   `json:"status"`
	Available int      `json:"available"`
	Lockers   []Locker `json:"lockers"`
}

type StartDeliveryRequest struct {
	BoardId        string `json:"boardId"`
	LockerNumber   string `json:"lockerNumber"`
	RecipientPhone string `json:"recipientPhone"`
}

type StartDeliveryResponse struct {
	OrderId      openapi_types.UUID `json:"orderId"`
	PickupCode   string             `json:"pickupCode"`
	BoardId      string             `json:"boardId"`
	LockerNumber string             `json:"lockerNumber"`
	LockerIndex  int                `json:"lockerIndex"`
}

type Delivery struct {
	Id             openapi_types.UUID `json:"id"`
	BoardId        string             `json:"boardId"`
	LockerNumber   string             `json:"lockerNumber"`
	LockerIndex    int                `json:"lockerIndex"`
	RecipientPhone string             `json:"recipientPhone"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"paymentStatus"`
	CreatedAt      time.Time          `json:"createdAt"`
	PickedUpAt     *time.Time         `json:"pickedUpAt,omitempty"`
	CancelledAt    *time.Time         `json:"cancelledAt,omitempty"`
}

type PickupCodeRequest struct {
	PickupCode string `json:"pickupCode"`
}

type Deeplink struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Link        string `json:"link,omitempty"`
}

type Invoice struct {
	PaymentId openapi_types.UUID `json:"paymentId"`
	OrderId   openapi_types.UUID `json:"orderId"`
	Amount    int64              `json:"amount"`
	InvoiceId string             `json:"invoiceId"`
	QrText    string             `json:"qrText,omitempty"`
	QrImage   string             `json:"qrImage,omitempty"`
	ShortUrl  string             `json:"shortUrl,omitempty"`
	Deeplinks []Deeplink         `json:"deeplinks,omitempty"`
}

type PickupResponse struct {
	OrderId         openapi_types.UUID `json:"orderId"`
	Unlocked        bool               `json:"unlocked"`
	BoardId         string             `json:"boardId,omitempty"`
	LockerNumber    string             `json:"lockerNumber,omitempty"`
	LockerIndex     *int               `json:"lockerIndex,omitempty"`
	PaymentRequired bool               `json:"paymentRequired"`
	Amount          int64              `json:"amount,omitempty"`
	Invoice         *Invoice           `json:"invoice,omitempty"`
}

type DeliveryPaymentStatus struct {
	OrderId       openapi_types.UUID `json:"orderId"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	BoardId       string             `json:"boardId,omitempty"`
	LockerNumber  string             `json:"lockerNumber,omitempty"`
	LockerIndex   *int               `json:"lockerIndex,omitempty"`
}

type CancelDeliveryRequest struct {
	Reason string `json:"reason,omitempty"`
}

type UpdateDeliveryStatusRequest struct {
	Status string `json:"status"`
}

type DeliveryState struct {
	OrderId openapi_types.UUID `json:"orderId"`
	Status  string             `json:"status"`
}

type CreateInvoiceRequest struct {
	OrderId openapi_types.UUID `json:"orderId"`
	Amount  int64              `json:"amount"`
}

type PaymentState struct {
	PaymentId openapi_types.UUID `json:"paymentId"`
	OrderId   openapi_types.UUID `json:"orderId"`
	Status    string             `json:"status"`
	Paid      bool               `json:"paid"`
	PaidAt    *time.Time         `json:"paidAt,omitempty"`
}

type SendSmsRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// ListDeliveriesParams defines parameters for ListDeliveries.
type ListDeliveriesParams struct {
	BoardId *string `form:"boardId,omitempty" json:"boardId,omitempty"`
	Status  *string `form:"status,omitempty" json:"status,omitempty"`
	Limit   *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(ctx echo.Context) error
	// (POST /api/v1/boards)
	InitBoard(ctx echo.Context) error
	// (GET /api/v1/boards/{boardId}/lockers)
	GetBoardLockers(ctx echo.Context, boardId string) error
	// (GET /api/v1/deliveries)
	ListDeliveries(ctx echo.Context, params ListDeliveriesParams) error
	// (POST /api/v1/deliveries)
	StartDelivery(ctx echo.Context) error
	// (POST /api/v1/deliveries/pickup)
	RequestPickup(ctx echo.Context) error
	// (POST /api/v1/deliveries/check-payment)
	CheckDeliveryPayment(ctx echo.Context) error
	// (POST /api/v1/deliveries/{code}/cancel)
	CancelDelivery(ctx echo.Context, code string) error
	// (PUT /api/v1/deliveries/{code}/status)
	UpdateDeliveryStatus(ctx echo.Context, code string) error
	// (POST /api/v1/payments/invoice)
	CreateInvoice(ctx echo.Context) error
	// (GET and POST /api/v1/payments/verify/{paymentId}/{orderId})
	VerifyPayment(ctx echo.Context, paymentId openapi_types.UUID, orderId openapi_types.UUID) error
	// (GET /api/v1/payments/check/{invoiceId})
	CheckInvoice(ctx echo.Context, invoiceId string) error
	// (POST /api/v1/sms)
	SendSms(ctx echo.Context) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) GetHealth(ctx echo.Context) error {
	return w.Handler.GetHealth(ctx)
}

func (w *ServerInterfaceWrapper) InitBoard(ctx echo.Context) error {
	return w.Handler.InitBoard(ctx)
}

func (w *ServerInterfaceWrapper) GetBoardLockers(ctx echo.Context) error {
	var boardId string
	if err := bindPath(ctx, "boardId", &boardId); err != nil {
		return err
	}
	return w.Handler.GetBoardLockers(ctx, boardId)
}

func (w *ServerInterfaceWrapper) ListDeliveries(ctx echo.Context) error {
	var params ListDeliveriesParams

	if err := runtime.BindQueryParameter("form", true, false, "boardId", ctx.QueryParams(), &params.BoardId); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter boardId: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter limit: %s", err))
	}
	return w.Handler.ListDeliveries(ctx, params)
}

func (w *ServerInterfaceWrapper) StartDelivery(ctx echo.Context) error {
	return w.Handler.StartDelivery(ctx)
}

func (w *ServerInterfaceWrapper) RequestPickup(ctx echo.Context) error {
	return w.Handler.RequestPickup(ctx)
}

func (w *ServerInterfaceWrapper) CheckDeliveryPayment(ctx echo.Context) error {
	return w.Handler.CheckDeliveryPayment(ctx)
}

func (w *ServerInterfaceWrapper) CancelDelivery(ctx echo.Context) error {
	var code string
	if err := bindPath(ctx, "code", &code); err != nil {
		return err
	}
	return w.Handler.CancelDelivery(ctx, code)
}

func (w *ServerInterfaceWrapper) UpdateDeliveryStatus(ctx echo.Context) error {
	var code string
	if err := bindPath(ctx, "code", &code); err != nil {
		return err
	}
	return w.Handler.UpdateDeliveryStatus(ctx, code)
}

func (w *ServerInterfaceWrapper) CreateInvoice(ctx echo.Context) error {
	return w.Handler.CreateInvoice(ctx)
}

func (w *ServerInterfaceWrapper) VerifyPayment(ctx echo.Context) error {
	var paymentId, orderId openapi_types.UUID
	if err := bindPath(ctx, "paymentId", &paymentId); err != nil {
		return err
	}
	if err := bindPath(ctx, "orderId", &orderId); err != nil {
		return err
	}
	return w.Handler.VerifyPayment(ctx, paymentId, orderId)
}

func (w *ServerInterfaceWrapper) CheckInvoice(ctx echo.Context) error {
	var invoiceId string
	if err := bindPath(ctx, "invoiceId", &invoiceId); err != nil {
		return err
	}
	return w.Handler.CheckInvoice(ctx, invoiceId)
}

func (w *ServerInterfaceWrapper) SendSms(ctx echo.Context) error {
	return w.Handler.SendSms(ctx)
}

func bindPath(ctx echo.Context, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the routes under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	w := ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/health", w.GetHealth)
	router.POST(baseURL+"/api/v1/boards", w.InitBoard)
	router.GET(baseURL+"/api/v1/boards/:boardId/lockers", w.GetBoardLockers)
	router.GET(baseURL+"/api/v1/deliveries", w.ListDeliveries)
	router.POST(baseURL+"/api/v1/deliveries", w.StartDelivery)
	router.POST(baseURL+"/api/v1/deliveries/pickup", w.RequestPickup)
	router.POST(baseURL+"/api/v1/deliveries/check-payment", w.CheckDeliveryPayment)
	router.POST(baseURL+"/api/v1/deliveries/:code/cancel", w.CancelDelivery)
	router.PUT(baseURL+"/api/v1/deliveries/:code/status", w.UpdateDeliveryStatus)
	router.POST(baseURL+"/api/v1/payments/invoice", w.CreateInvoice)
	router.GET(baseURL+"/api/v1/payments/verify/:paymentId/:orderId", w.VerifyPayment)
	router.POST(baseURL+"/api/v1/payments/verify/:paymentId/:orderId", w.VerifyPayment)
	router.GET(baseURL+"/api/v1/payments/check/:invoiceId", w.CheckInvoice)
	router.POST(baseURL+"/api/v1/sms", w.SendSms)
}

var (
	loadOnce   sync.Once
	loadedSpec *openapi3.T
	loadErr    error
)

// GetSwagger returns the validated OpenAPI document. The returned value is
// shared; callers must not modify it.
func GetSwagger() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(specYAML)
		if err != nil {
			loadErr = fmt.Errorf("error loading openapi document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("invalid openapi document: %w", err)
			return
		}
		loadedSpec = doc
	})
	return loadedSpec, loadErr
}

type swaggerDoc struct {
	json string
}

func (d swaggerDoc) ReadDoc() string {
	return d.json
}

var registerOnce sync.Once

// RegisterSwagger publishes the document to swag so the swagger UI can serve it.
func RegisterSwagger() error {
	doc, err := GetSwagger()
	if err != nil {
		return err
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal openapi document: %w", err)
	}
	registerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{json: string(raw)})
	})
	return nil
}
