package ledger

import "strings"

const pathSeparator = ":"

// Root segments of the chart of accounts.
const (
	RootIbex            = "Ibex"
	RootPayable         = "Accounts Payable"
	RootRevenue         = "Revenue"
	RootForeignExchange = "Foreign Exchange"
	RootExternalCash    = "External Cash"
	RootExternal        = "External"

	segmentServiceFees = "Service Fees"
	segmentTopupFees   = "Topup Fees"
)

// AccountPath identifies an account in the chart of accounts. Paths are
// hierarchical: a balance query on a path includes all of its sub-paths.
type AccountPath []string

// Ibex mirrors the custodial balance a wallet holds at the provider.
func Ibex(walletID string) AccountPath { return AccountPath{RootIbex, walletID} }

// Payable is the liability owed to a wallet pending external settlement.
func Payable(walletID string) AccountPath { return AccountPath{RootPayable, walletID} }

func ServiceFees() AccountPath     { return AccountPath{RootRevenue, segmentServiceFees} }
func TopupFees() AccountPath       { return AccountPath{RootRevenue, segmentTopupFees} }
func ForeignExchange() AccountPath { return AccountPath{RootForeignExchange} }
func ExternalCash() AccountPath    { return AccountPath{RootExternalCash} }

// External is the clearing account of a funding provider.
func External(provider string) AccountPath { return AccountPath{RootExternal, provider} }

// ParseAccountPath splits the rendered form produced by String.
func ParseAccountPath(s string) AccountPath {
	if s == "" {
		return nil
	}
	return AccountPath(strings.Split(s, pathSeparator))
}

func (p AccountPath) String() string { return strings.Join(p, pathSeparator) }

func (p AccountPath) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

func (p AccountPath) Equal(o AccountPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o is p or one of its sub-paths.
func (p AccountPath) Contains(o AccountPath) bool {
	if len(o) < len(p) {
		return false
	}
	return p.Equal(o[:len(p)])
}

// WalletID returns the wallet an Ibex or Payable path belongs to.
func (p AccountPath) WalletID() (string, bool) {
	if len(p) != 2 {
		return "", false
	}
	switch p[0] {
	case RootIbex, RootPayable:
		return p[1], p[1] != ""
	}
	return "", false
}

// Valid rejects empty paths and segments that would not survive String/Parse.
func (p AccountPath) Valid() bool {
	if len(p) == 0 {
		return false
	}
	for _, seg := range p {
		if seg == "" || strings.Contains(seg, pathSeparator) {
			return false
		}
	}
	return true
}
