package models

import (
	"encoding/json"
	"errors"
	"strings"
)

type MembershipRole string

const (
	MembershipRoleOwner    MembershipRole = "OWNER"
	MembershipRoleManager  MembershipRole = "MANAGER"
	MembershipRoleEmployee MembershipRole = "EMPLOYEE"
)

func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleOwner, MembershipRoleManager, MembershipRoleEmployee:
		return true
	}
	return false
}

// CanManageMembers is true for roles allowed to add, edit and remove employees.
func (r MembershipRole) CanManageMembers() bool {
	return r == MembershipRoleOwner || r == MembershipRoleManager
}

func (r *MembershipRole) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("role must be string")
	}
	role := MembershipRole(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return errors.New("invalid role " + s)
	}
	*r = role
	return nil
}

// InvoiceKind tells sale and purchase invoices apart. They share one shape and
// carry opposite ledger signs: sales debit the party, purchases credit it.
type InvoiceKind string

const (
	InvoiceKindSale     InvoiceKind = "Sale"
	InvoiceKindPurchase InvoiceKind = "Purchase"
)

func (k InvoiceKind) IsValid() bool {
	return k == InvoiceKindSale || k == InvoiceKindPurchase
}

// ParseInvoiceKind accepts "sale", "sales", "purchase" and "purchases" in any case.
func ParseInvoiceKind(s string) (InvoiceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "sales":
		return InvoiceKindSale, nil
	case "purchase", "purchases":
		return InvoiceKindPurchase, nil
	}
	return "", errors.New("invoice kind must be sale or purchase")
}

// CashSide is the side of a daily page a cash entry sits on.
type CashSide string

const (
	CashSideJama  CashSide = "Jama"
	CashSideNaame CashSide = "Naame"
)

// ParseCashSide accepts "jama" and "naame" in any case.
func ParseCashSide(s string) (CashSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jama":
		return CashSideJama, nil
	case "naame":
		return CashSideNaame, nil
	}
	return "", errors.New("cash side must be jama or naame")
}
