package models

// All lists every model in dependency order, for dev auto-migration and tests.
func All() []any {
	return []any{
		&DocumentType{},
		&User{},
		&Role{},
		&UserRole{},
		&Product{},
		&Stock{},
		&Cart{},
		&CartItem{},
		&PaymentReference{},
		&PaymentType{},
		&PaymentStatus{},
		&Payment{},
		&PaymentDebit{},
		&PaymentCredit{},
	}
}
