package registration

import (
	"fmt"
	"strings"

	"github.com/m3rciful/placementbot/internal/store"
)

const (
	defaultCBEAccount      = "1000585062867"
	defaultTeleBirrAccount = "0905355356"
)

// Texts carries the deployment specific values rendered into prompts.
type Texts struct {
	CBEAccount      string
	TeleBirrAccount string
	Amount          int
}

func (t Texts) withDefaults() Texts {
	if t.CBEAccount == "" {
		t.CBEAccount = defaultCBEAccount
	}
	if t.TeleBirrAccount == "" {
		t.TeleBirrAccount = defaultTeleBirrAccount
	}
	if t.Amount <= 0 {
		t.Amount = store.DefaultAmount
	}
	return t
}

const welcomeText = `Welcome to Haramaya University Placement System! 🎓

Please enter your Student ID to begin registration.`

const paymentMethodText = `Please select your payment method:

1. CBE Birr
2. TeleBirr

Reply with either "1" for CBE or "2" for TeleBirr.`

const (
	askStudentID       = "Please enter your Student ID:"
	askFullName        = "Please enter your full name:"
	askEmail           = "Please enter your email:"
	askSection         = "Please enter your section (e.g., FN-1, FS-1):"
	methodGuidance     = `Please select either "1" for CBE or "2" for TeleBirr.`
	askScreenshot      = "Please upload your payment screenshot:"
	screenshotGuidance = "Please upload a photo of your payment screenshot."
)

// paymentMethodChoices are offered as reply keyboard buttons.
var paymentMethodChoices = []string{"1", "2"}

func (t Texts) paymentInstructions(method store.PaymentMethod) string {
	account := t.CBEAccount
	if method == store.MethodTeleBirr {
		account = t.TeleBirrAccount
	}
	return fmt.Sprintf(`Please make your payment using %s:

Account Number: %s
Amount: %d ETB

After making the payment:
1. Enter your FT number
2. Upload the payment screenshot`, method.Label(), account, t.Amount)
}

func successText(s store.StudentRecord, p store.PaymentRecord) string {
	var b strings.Builder
	b.WriteString("✅ Registration and Payment Successful!\n\n")
	b.WriteString("Thank you for registering. Your payment will be verified shortly.\n")
	b.WriteString("You will receive the system access link once your payment is confirmed.\n\n")
	b.WriteString("Registration Details:\n")
	fmt.Fprintf(&b, "Student ID: %s\n", s.StudentID)
	fmt.Fprintf(&b, "Name: %s\n", s.FullName)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Section: %s\n", s.Section)
	fmt.Fprintf(&b, "Payment Method: %s\n", p.Method)
	fmt.Fprintf(&b, "Amount: %d ETB\n", p.Amount)
	fmt.Fprintf(&b, "FT Number: %s\n", p.FTNumber)
	fmt.Fprintf(&b, "Payment Reference: %s", p.Reference)
	return b.String()
}

func adminAlertText(s store.StudentRecord, p store.PaymentRecord) string {
	var b strings.Builder
	b.WriteString("🆕 New registration\n\n")
	fmt.Fprintf(&b, "Student ID: %s\n", s.StudentID)
	fmt.Fprintf(&b, "Name: %s\n", s.FullName)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Section: %s\n", s.Section)
	fmt.Fprintf(&b, "Payment Method: %s\n", p.Method)
	fmt.Fprintf(&b, "FT Number: %s\n", p.FTNumber)
	fmt.Fprintf(&b, "Reference: %s\n", p.Reference)
	fmt.Fprintf(&b, "User ID: %d\n\n", s.UserID)
	fmt.Fprintf(&b, "Verify with /verify %d", s.UserID)
	return b.String()
}

func screenshotCaption(s store.StudentRecord) string {
	return fmt.Sprintf("Payment screenshot from %s (%s)", s.FullName, s.StudentID)
}

func statusText(s store.StudentRecord, p store.PaymentRecord, ok bool) string {
	if !ok {
		return "❌ No payment found. Please use /start to register and pay."
	}
	if p.Verified() {
		return fmt.Sprintf("✅ Your payment has been verified!\n\nStudent ID: %s\nAmount: %d ETB\nDate: %s",
			s.StudentID, p.Amount, p.PaidAt.Format("2006-01-02"))
	}
	return fmt.Sprintf("⏳ Your payment is awaiting verification.\n\nStudent ID: %s\nReference: %s\nFT Number: %s",
		s.StudentID, p.Reference, p.FTNumber)
}
