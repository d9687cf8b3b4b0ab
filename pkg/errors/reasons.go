package errors

// Reason tags a business failure with a stable, caller-matchable identifier.
type Reason string

const (
	ReasonDocumentTypeNotFound Reason = "DOCUMENT_TYPE_NOT_FOUND"
	ReasonUserNotFound         Reason = "USER_NOT_FOUND"
	ReasonNoRolesAssigned      Reason = "NO_ROLES_ASSIGNED"
	ReasonRoleNotAllowed       Reason = "ROLE_NOT_ALLOWED"

	ReasonCartNotFound     Reason = "CART_NOT_FOUND"
	ReasonCartUnauthorized Reason = "CART_UNAUTHORIZED"
	ReasonCartExists       Reason = "CART_ALREADY_EXISTS"
	ReasonCartEmpty        Reason = "CART_EMPTY"

	ReasonCartItemNotFound     Reason = "CART_ITEM_NOT_FOUND"
	ReasonCartItemUnauthorized Reason = "CART_ITEM_UNAUTHORIZED"
	ReasonCartItemExists       Reason = "CART_ITEM_ALREADY_EXISTS"
	ReasonInvalidQuantity      Reason = "INVALID_QUANTITY"

	ReasonProductNotFound Reason = "PRODUCT_NOT_FOUND"
	ReasonProductInactive Reason = "PRODUCT_INACTIVE"

	ReasonInsufficientStock Reason = "INSUFFICIENT_STOCK"

	ReasonInvalidEncryptedData  Reason = "INVALID_ENCRYPTED_DATA"
	ReasonInvalidCardDataFormat Reason = "INVALID_CARD_DATA_FORMAT"
	ReasonInvalidCardNumber     Reason = "INVALID_CARD_NUMBER"
	ReasonInvalidPaymentType    Reason = "INVALID_PAYMENT_TYPE"
	ReasonInvalidExpirationDate Reason = "INVALID_EXPIRATION_DATE"
	ReasonInvalidInstallments   Reason = "INVALID_INSTALLMENTS"

	ReasonPaymentStatusNotFound Reason = "PAYMENT_STATUS_NOT_FOUND"
	ReasonReferenceExhausted    Reason = "REFERENCE_GENERATION_EXHAUSTED"
)

var codeByReason = map[Reason]Code{
	ReasonDocumentTypeNotFound: CodeNotFound,
	ReasonUserNotFound:         CodeNotFound,
	ReasonNoRolesAssigned:      CodeForbidden,
	ReasonRoleNotAllowed:       CodeForbidden,

	ReasonCartNotFound:     CodeNotFound,
	ReasonCartUnauthorized: CodeForbidden,
	ReasonCartExists:       CodeConflict,
	ReasonCartEmpty:        CodeValidation,

	ReasonCartItemNotFound:     CodeNotFound,
	ReasonCartItemUnauthorized: CodeForbidden,
	ReasonCartItemExists:       CodeConflict,
	ReasonInvalidQuantity:      CodeValidation,

	ReasonProductNotFound: CodeNotFound,
	ReasonProductInactive: CodeValidation,

	ReasonInsufficientStock: CodeInsufficientStock,

	ReasonInvalidEncryptedData:  CodeValidation,
	ReasonInvalidCardDataFormat: CodeValidation,
	ReasonInvalidCardNumber:     CodeValidation,
	ReasonInvalidPaymentType:    CodeValidation,
	ReasonInvalidExpirationDate: CodeValidation,
	ReasonInvalidInstallments:   CodeValidation,

	// deployment fault
	ReasonPaymentStatusNotFound: CodeInternal,
	ReasonReferenceExhausted:    CodeResourceExhausted,
}

// Code returns the transport class for the reason.
func (r Reason) Code() Code {
	if code, ok := codeByReason[r]; ok {
		return code
	}
	return CodeInternal
}

// IsValid reports whether the reason belongs to the known set.
func (r Reason) IsValid() bool {
	_, ok := codeByReason[r]
	return ok
}

func (r Reason) String() string {
	return string(r)
}
