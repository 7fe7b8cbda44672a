package v1

import (
	"time"

	"github.com/google/uuid"

	"ledgerd/internal/ledger"
	"ledgerd/internal/service/movement"
	"ledgerd/internal/service/refdata"
)

// Auth

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Reference data

type postAccountRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type accountResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

type postCategoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type postPaymentMethodRequest struct {
	Name string `json:"name"`
	// Kind is standard (default) or credit.
	Kind ledger.PaymentMethodKind `json:"kind,omitempty"`
}

type paymentMethodResponse struct {
	ID   uuid.UUID                `json:"id"`
	Name string                   `json:"name"`
	Kind ledger.PaymentMethodKind `json:"kind"`
}

type referenceResponse struct {
	Accounts       []accountResponse       `json:"accounts"`
	Categories     []categoryResponse      `json:"categories"`
	PaymentMethods []paymentMethodResponse `json:"payment_methods"`
}

// Movements

type postMovementRequest struct {
	AccountID       uuid.UUID   `json:"account_id"`
	CategoryID      *uuid.UUID  `json:"category_id,omitempty"`
	PaymentMethodID *uuid.UUID  `json:"payment_method_id,omitempty"`
	Kind            ledger.Kind `json:"kind"`
	AmountMinor     int64       `json:"amount_minor"`
	Description     string      `json:"description"`
}

type movementResponse struct {
	ID                uuid.UUID   `json:"id"`
	AccountID         uuid.UUID   `json:"account_id"`
	CategoryID        *uuid.UUID  `json:"category_id,omitempty"`
	PaymentMethodID   *uuid.UUID  `json:"payment_method_id,omitempty"`
	Kind              ledger.Kind `json:"kind"`
	AmountMinor       int64       `json:"amount_minor"`
	Amount            string      `json:"amount"`
	Description       string      `json:"description"`
	OccurredAt        time.Time   `json:"occurred_at"`
	BalanceAfterMinor *int64      `json:"balance_after_minor,omitempty"`
	BalanceAfter      *string     `json:"balance_after,omitempty"`
}

type historyRowResponse struct {
	movementResponse
	AccountName       string  `json:"account_name"`
	CategoryName      *string `json:"category_name,omitempty"`
	PaymentMethodName *string `json:"payment_method_name,omitempty"`
}

type historyResponse struct {
	Items             []historyRowResponse `json:"items"`
	TotalBalanceMinor int64                `json:"total_balance_minor"`
	TotalBalance      string               `json:"total_balance"`
}

type balanceResponse struct {
	BalanceMinor int64  `json:"balance_minor"`
	Balance      string `json:"balance"`
}

func toUserResponse(u ledger.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toMovementResponse(m ledger.Movement) movementResponse {
	amountMinor, _ := m.Amount.MinorUnits()
	resp := movementResponse{
		ID:              m.ID,
		AccountID:       m.AccountID,
		CategoryID:      m.CategoryID,
		PaymentMethodID: m.PaymentMethodID,
		Kind:            m.Kind,
		AmountMinor:     amountMinor,
		Amount:          m.Amount.String(),
		Description:     m.Description,
		OccurredAt:      m.OccurredAt,
	}
	if m.BalanceAfter != nil {
		minor, _ := m.BalanceAfter.MinorUnits()
		str := m.BalanceAfter.String()
		resp.BalanceAfterMinor = &minor
		resp.BalanceAfter = &str
	}
	return resp
}

func toHistoryRowResponse(row movement.HistoryRow) historyRowResponse {
	return historyRowResponse{
		movementResponse:  toMovementResponse(row.Movement),
		AccountName:       row.AccountName,
		CategoryName:      row.CategoryName,
		PaymentMethodName: row.PaymentMethodName,
	}
}

func toReferenceResponse(ref refdata.Reference) referenceResponse {
	out := referenceResponse{
		Accounts:       make([]accountResponse, 0, len(ref.Accounts)),
		Categories:     make([]categoryResponse, 0, len(ref.Categories)),
		PaymentMethods: make([]paymentMethodResponse, 0, len(ref.PaymentMethods)),
	}
	for _, a := range ref.Accounts {
		out.Accounts = append(out.Accounts, accountResponse{ID: a.ID, Name: a.Name, Description: a.Description})
	}
	for _, c := range ref.Categories {
		out.Categories = append(out.Categories, categoryResponse{ID: c.ID, Name: c.Name})
	}
	for _, p := range ref.PaymentMethods {
		out.PaymentMethods = append(out.PaymentMethods, paymentMethodResponse{ID: p.ID, Name: p.Name, Kind: p.Kind})
	}
	return out
}
