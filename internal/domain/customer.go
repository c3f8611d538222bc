package domain

// Customer is the authenticated user of a session. Row keeps the full record
// so handlers can surface profile fields without re-querying.
type Customer struct {
	CustomerID string `json:"customer_id"`
	NIK        string `json:"NIK"`
	Name       string `json:"name"`
	Row        Record `json:"-"`
}

// CustomerFromRecord builds a Customer from a customer-table row.
func CustomerFromRecord(r Record) *Customer {
	return &Customer{
		CustomerID: r.Get(ColCustomerID),
		NIK:        r.Get(ColNIK),
		Name:       r.Get(ColName),
		Row:        r,
	}
}
