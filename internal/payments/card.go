package payments

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/enums"
	pkgerrors "github.com/davivienda-ecommerce/storefront-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const cardMask = "************"

var (
	expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardValidator     = validator.New()
)

// CardData is the decrypted card payload.
type CardData struct {
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	ExpirationDate string `json:"expirationDate"`
	PaymentType    string `json:"paymentType"`
	Installments   *int   `json:"installments"`
}

// Card is a validated payload. The full number never leaves this struct.
type Card struct {
	Last4         string
	HolderName    string
	Type          enums.PaymentType
	Expiration    time.Time
	ExpirationSet bool
	Installments  int
	// Requested is the installment count sent by the client, before coercion.
	Requested *int
}

// Masked returns the card number as stored: twelve stars and the last four digits.
func (c Card) Masked() string {
	return cardMask + c.Last4
}

// ValidateCard checks the payload fields in order: number, holder, type,
// expiration, installments.
func ValidateCard(data CardData) (Card, error) {
	number := stripSpaces(data.CardNumber)
	if err := cardValidator.Var(number, "required,number,len=16"); err != nil {
		return Card{}, pkgerrors.Newf(pkgerrors.ReasonInvalidCardNumber, "card number must have exactly 16 digits")
	}

	holder := strings.TrimSpace(data.CardHolderName)
	if holder == "" {
		return Card{}, pkgerrors.Newf(pkgerrors.ReasonInvalidCardDataFormat, "card holder name is required")
	}

	paymentType, err := enums.ParsePaymentType(data.PaymentType)
	if err != nil {
		return Card{}, pkgerrors.Newf(pkgerrors.ReasonInvalidPaymentType, "payment type must be debito or credito")
	}

	card := Card{
		Last4:      number[len(number)-4:],
		HolderName: holder,
		Type:       paymentType,
		Requested:  data.Installments,
	}

	expiration := strings.TrimSpace(data.ExpirationDate)
	if expiration != "" {
		if !expirationPattern.MatchString(expiration) {
			return Card{}, pkgerrors.Newf(pkgerrors.ReasonInvalidExpirationDate, "expiration date must be MM/YY")
		}
		if parsed, ok := parseExpiration(expiration); ok {
			card.Expiration = parsed
			card.ExpirationSet = true
		}
	}

	installments, err := resolveInstallments(paymentType, data.Installments)
	if err != nil {
		return Card{}, err
	}
	card.Installments = installments
	return card, nil
}

// resolveInstallments forces debit to a single installment and defaults
// credit to one.
func resolveInstallments(paymentType enums.PaymentType, requested *int) (int, error) {
	if paymentType == enums.PaymentTypeDebit {
		return 1, nil
	}
	if requested == nil {
		return 1, nil
	}
	if *requested <= 0 {
		return 0, pkgerrors.Newf(pkgerrors.ReasonInvalidInstallments, "installments must be greater than zero")
	}
	return *requested, nil
}

// parseExpiration maps MM/YY to the last day of that month in UTC.
func parseExpiration(value string) (time.Time, bool) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, false
	}
	firstOfNext := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1), true
}

func stripSpaces(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}
