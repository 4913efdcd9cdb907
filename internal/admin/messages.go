package admin

import (
	"fmt"
	"strings"

	"github.com/m3rciful/placementbot/internal/store"
)

const dashboardText = `🔑 Admin Dashboard

Available commands:
1. /stats - View registration and payment statistics
2. /list - View all registered students
3. /verify <user_id|reference> - Mark a payment as verified and send access details
4. /export - Download students and payments as a spreadsheet`

const emptyListText = "📝 Registered Students:\n\nNo students registered yet."

type listEntry struct {
	student store.StudentRecord
	payment store.PaymentRecord
	paid    bool
}

func listText(entries []listEntry) string {
	if len(entries) == 0 {
		return emptyListText
	}
	var b strings.Builder
	b.WriteString("📝 Registered Students:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.student.FullName)
		fmt.Fprintf(&b, "   ID: %s\n", e.student.StudentID)
		fmt.Fprintf(&b, "   User: %d\n", e.student.UserID)
		fmt.Fprintf(&b, "   Email: %s\n", e.student.Email)
		fmt.Fprintf(&b, "   Section: %s\n", e.student.Section)
		if !e.paid {
			b.WriteString("   Payment: ❌ Not Paid\n\n")
			continue
		}
		b.WriteString("   Payment: ✅ Paid\n")
		fmt.Fprintf(&b, "   Method: %s\n", e.payment.Method.Label())
		fmt.Fprintf(&b, "   FT Number: %s\n", e.payment.FTNumber)
		fmt.Fprintf(&b, "   Amount: %d ETB\n", e.payment.Amount)
		fmt.Fprintf(&b, "   Reference: %s\n", e.payment.Reference)
		fmt.Fprintf(&b, "   Status: %s\n\n", e.payment.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

func accessText(link string) string {
	if link == "" {
		return "✅ Your payment has been verified!\n\nAn administrator will share the placement test access details with you shortly."
	}
	return fmt.Sprintf("✅ Your payment has been verified!\n\nYou can now access the placement test here:\n%s", link)
}

// VerifiedText is the confirmation shown to the admin after /verify.
func VerifiedText(v Verification) string {
	head := fmt.Sprintf("✅ Payment verified for %s (%s).", v.Student.FullName, v.Student.StudentID)
	if !v.Notified {
		return head + " ⚠️ The access details could not be delivered to the student; please contact them directly."
	}
	return head + " The student has been notified."
}
