package status

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"ticket-admin/models"
)

// Request is a requested transition with whatever form data came with it. Only the
// fields the edge requires are read.
type Request struct {
	To              models.TicketStatus `json:"status"`
	CustomerPayment string              `json:"customer_payment,omitempty"`
	PaymentDate     string              `json:"payment_date,omitempty"`
	SellingPrice    string              `json:"selling_price,omitempty"`
	Zone            string              `json:"zone,omitempty"`
	Row             string              `json:"row,omitempty"`
	Seat            string              `json:"seat,omitempty"`
	RefundStatus    string              `json:"refund_status,omitempty"`
}

// Patch is the partial ticket update. Nil fields are left out of the request body.
// Amounts carry the submitted text so the stored value matches what was typed.
type Patch struct {
	Status          *models.TicketStatus `json:"status,omitempty"`
	RefundStatus    *models.RefundStatus `json:"refund_status,omitempty"`
	CustomerPayment *string              `json:"customer_payment,omitempty"`
	PaymentDate     *string              `json:"payment_date,omitempty"`
	SellingPrice    *string              `json:"selling_price,omitempty"`
	Zone            *string              `json:"zone,omitempty"`
	Row             *string              `json:"row,omitempty"`
	Seat            *string              `json:"seat,omitempty"`
}

type paidForm struct {
	CustomerPayment string `json:"customer_payment" validate:"required,numeric"`
	PaymentDate     string `json:"payment_date" validate:"required,datetime=2006-01-02"`
}

type completeForm struct {
	SellingPrice string `json:"selling_price" validate:"required,numeric"`
	Zone         string `json:"zone" validate:"required"`
	Row          string `json:"row" validate:"required"`
	Seat         string `json:"seat" validate:"required"`
}

type refundForm struct {
	RefundStatus string `json:"refund_status" validate:"required,oneof=in_process refunded"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Plan checks the transition from the ticket's current status and builds the patch
// that applies it. A ticket with no status is treated as pending.
func Plan(ticket models.Ticket, req Request) (Patch, Edge, error) {
	from := ticket.Status.Normalize()
	if from == "" {
		from = models.StatusPending
	}

	edge, ok := Lookup(from, req.To)
	if !ok {
		return Patch{}, Edge{}, ErrNotAllowed
	}

	switch {
	case edge.To == models.StatusPaid:
		form := paidForm{
			CustomerPayment: strings.TrimSpace(req.CustomerPayment),
			PaymentDate:     strings.TrimSpace(req.PaymentDate),
		}
		if err := check(form); err != nil {
			return Patch{}, edge, err
		}
		if err := checkAmount("customer_payment", form.CustomerPayment); err != nil {
			return Patch{}, edge, err
		}
		return Patch{
			Status:          statusPtr(models.StatusPaid),
			CustomerPayment: &form.CustomerPayment,
			PaymentDate:     &form.PaymentDate,
		}, edge, nil

	case edge.To == models.StatusComplete:
		form := completeForm{
			SellingPrice: strings.TrimSpace(req.SellingPrice),
			Zone:         strings.TrimSpace(req.Zone),
			Row:          strings.TrimSpace(req.Row),
			Seat:         strings.TrimSpace(req.Seat),
		}
		if err := check(form); err != nil {
			return Patch{}, edge, err
		}
		if err := checkAmount("selling_price", form.SellingPrice); err != nil {
			return Patch{}, edge, err
		}
		return Patch{
			Status:       statusPtr(models.StatusComplete),
			SellingPrice: &form.SellingPrice,
			Zone:         &form.Zone,
			Row:          &form.Row,
			Seat:         &form.Seat,
		}, edge, nil

	case edge.RefundOnly():
		form := refundForm{RefundStatus: strings.ToLower(strings.TrimSpace(req.RefundStatus))}
		if err := check(form); err != nil {
			return Patch{}, edge, err
		}
		return Patch{RefundStatus: refundPtr(models.RefundStatus(form.RefundStatus))}, edge, nil

	case edge.To == models.StatusCancel:
		return Patch{
			Status:       statusPtr(models.StatusCancel),
			RefundStatus: refundPtr(models.RefundInProcess),
		}, edge, nil

	case edge.To == models.StatusPending:
		patch := Patch{Status: statusPtr(models.StatusPending)}
		if edge.From == models.StatusCancel {
			patch.RefundStatus = refundPtr(models.RefundNone)
		}
		return patch, edge, nil
	}

	return Patch{}, edge, ErrNotAllowed
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must be a number"
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}

func checkAmount(field, value string) error {
	if _, err := decimal.NewFromString(value); err != nil {
		return &ValidationError{Fields: map[string]string{field: "must be a number"}}
	}
	return nil
}

func statusPtr(s models.TicketStatus) *models.TicketStatus { return &s }

func refundPtr(r models.RefundStatus) *models.RefundStatus { return &r }
