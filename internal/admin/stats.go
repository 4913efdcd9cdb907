package admin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m3rciful/placementbot/internal/store"
)

// Stats is a snapshot of registration and payment totals.
type Stats struct {
	TotalStudents int
	TotalPayments int
	TotalAmount   int
	ByMethod      map[store.PaymentMethod]int
}

// ComputeStats aggregates students and payments. It has no side effects.
func ComputeStats(students []store.StudentRecord, payments []store.PaymentRecord) Stats {
	st := Stats{
		TotalStudents: len(students),
		TotalPayments: len(payments),
		ByMethod:      make(map[store.PaymentMethod]int),
	}
	for _, p := range payments {
		st.TotalAmount += p.Amount
		st.ByMethod[p.Method]++
	}
	return st
}

// String renders the /stats reply. CBE and TeleBirr are always listed.
func (st Stats) String() string {
	var b strings.Builder
	b.WriteString("📊 Registration and Payment Statistics\n\n")
	fmt.Fprintf(&b, "Total Students Registered: %d\n", st.TotalStudents)
	fmt.Fprintf(&b, "Total Payments Received: %d\n", st.TotalPayments)
	fmt.Fprintf(&b, "Total Amount Collected: %d ETB\n\n", st.TotalAmount)
	b.WriteString("Payment Methods Used:\n")
	fmt.Fprintf(&b, "%s: %d\n", store.MethodCBE.Label(), st.ByMethod[store.MethodCBE])
	fmt.Fprintf(&b, "%s: %d", store.MethodTeleBirr.Label(), st.ByMethod[store.MethodTeleBirr])

	var other []store.PaymentMethod
	for m := range st.ByMethod {
		if m != store.MethodCBE && m != store.MethodTeleBirr {
			other = append(other, m)
		}
	}
	sort.Slice(other, func(i, j int) bool { return other[i] < other[j] })
	for _, m := range other {
		fmt.Fprintf(&b, "\n%s: %d", m.Label(), st.ByMethod[m])
	}
	return b.String()
}
