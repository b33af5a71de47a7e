package loan

import (
	"errors"
	"math"
	"testing"

	"comortgage/internal/domain/ledger"
)

var testInfo = Info{AnnualRate: 0.5, TotalPeriods: 10}

func approx(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) >= 0.005 {
		t.Fatalf("%s = %.4f, want %.2f", label, got, want)
	}
}

func TestBasicAmortization(t *testing.T) {
	l := New(testInfo, 100_000)

	rows := l.Schedule().Rows
	if len(rows) != 10 {
		t.Fatalf("schedule has %d rows, want 10", len(rows))
	}

	approx(t, "level payment", rows[0].TotalPayment, 12431.60)
	approx(t, "row 1 interest", rows[0].Interest, 4166.67)
	approx(t, "row 1 principal", rows[0].Principal, 8264.93)
	approx(t, "row 1 balance", rows[0].Balance, 91735.07)
	approx(t, "closing balance", rows[9].Balance, 0)

	// level payment holds for the whole schedule absent extras
	for _, r := range rows {
		approx(t, "payment", r.TotalPayment, 12431.60)
	}
}

func TestOverPaymentReamortizes(t *testing.T) {
	l := New(testInfo, 100_000)
	l.AddExtraPayment(ledger.Payment{Amount: 5000, Period: 5})

	rows := l.Schedule().Rows

	// rows 1..5 keep the original payment
	for _, r := range rows[:5] {
		approx(t, "head payment", r.TotalPayment, 12431.60)
	}
	approx(t, "row 5 extra", rows[4].Extra, 5000)
	approx(t, "row 5 balance", rows[4].Balance, 50085.11)

	// tail re-amortizes against the reduced balance
	for _, r := range rows[5:] {
		approx(t, "tail payment", r.TotalPayment, 11303.20)
	}
	approx(t, "closing balance", rows[9].Balance, 0)
}

func TestNegativeExtraReinflates(t *testing.T) {
	l := New(testInfo, 100_000)
	l.AddExtraPayment(ledger.Payment{Amount: -3000, Period: 3})

	rows := l.Schedule().Rows

	// the balance jumps up by the under-payment
	approx(t, "row 3 balance", rows[2].Balance, 77157.73)
	// and the tail gets a higher level payment
	for _, r := range rows[3:] {
		approx(t, "tail payment", r.TotalPayment, 12934.51)
	}
	approx(t, "closing balance", rows[9].Balance, 0)
}

func TestPeriodZeroDownPayment(t *testing.T) {
	l := NewWithExtras(testInfo, 100_000, 1, map[int]float64{0: 25_000})

	approx(t, "principal", l.Principal(), 75_000)
	approx(t, "level payment", l.Schedule().Rows[0].TotalPayment, 9323.70)
}

func TestLateDownPaymentTakesEffect(t *testing.T) {
	l := New(testInfo, 100_000)
	l.AddExtraPayment(ledger.Payment{Amount: 25_000, Period: 0})

	approx(t, "principal", l.Principal(), 75_000)
	approx(t, "level payment", l.Schedule().Rows[0].TotalPayment, 9323.70)
}

func TestExtraPaymentsAccumulate(t *testing.T) {
	l := New(testInfo, 100_000)
	l.AddExtraPayment(ledger.Payment{Amount: 2000, Period: 5})
	l.AddExtraPayment(ledger.Payment{Amount: 3000, Period: 5})

	approx(t, "row 5 extra", l.Schedule().Rows[4].Extra, 5000)
}

func TestZeroRateSplitsEvenly(t *testing.T) {
	l := New(Info{AnnualRate: 0, TotalPeriods: 10}, 100_000)

	for _, r := range l.Schedule().Rows {
		approx(t, "payment", r.TotalPayment, 10_000)
		approx(t, "interest", r.Interest, 0)
	}
}

func TestPaymentForPeriod(t *testing.T) {
	l := New(testInfo, 100_000)

	// period 0 sentinel: nothing due yet, full value outstanding
	d, err := l.PaymentForPeriod(0)
	if err != nil {
		t.Fatalf("period 0: %v", err)
	}
	if d.TotalPayment != 0 || d.Principal != 0 || d.Interest != 0 {
		t.Fatalf("period 0 should be all zeros, got %+v", d)
	}
	approx(t, "period 0 balance", d.RemainingBalance, 100_000)

	d, err = l.PaymentForPeriod(1)
	if err != nil {
		t.Fatalf("period 1: %v", err)
	}
	approx(t, "period 1 total", d.TotalPayment, 12431.60)

	if _, err := l.PaymentForPeriod(11); !errors.Is(err, ErrPeriodOutOfRange) {
		t.Fatalf("period 11: got %v, want ErrPeriodOutOfRange", err)
	}
	if _, err := l.PaymentForPeriod(-1); !errors.Is(err, ErrPeriodOutOfRange) {
		t.Fatalf("period -1: got %v, want ErrPeriodOutOfRange", err)
	}
}

func TestStartPeriodZeroPrefix(t *testing.T) {
	l := NewWithExtras(testInfo, -5000, 6, nil)

	rows := l.Schedule().Rows
	if len(rows) != 10 {
		t.Fatalf("schedule has %d rows, want 10", len(rows))
	}
	for _, r := range rows[:5] {
		if r.TotalPayment != 0 || r.Balance != 0 {
			t.Fatalf("row %d before start period is not zero: %+v", r.Period, r)
		}
	}
	if rows[5].TotalPayment == 0 {
		t.Fatalf("row 6 should carry the first payment")
	}
}

func TestCloneIndependence(t *testing.T) {
	src := New(testInfo, 100_000)
	dup := src.Clone()

	dup.AddExtraPayment(ledger.Payment{Amount: 5000, Period: 5})

	if !src.Schedule().Equal(New(testInfo, 100_000).Schedule()) {
		t.Fatalf("mutating the clone changed the source schedule")
	}
	if src.Schedule().Rows[4].Extra != 0 {
		t.Fatalf("clone's extra payment leaked into the source")
	}
}

func TestCombineCommutative(t *testing.T) {
	a := New(testInfo, 100_000)
	b := NewWithExtras(testInfo, -5000, 6, nil)
	c := NewWithExtras(testInfo, 3000, 4, nil)

	want := Combine(a, b, c)
	for _, perm := range [][]*Loan{{a, c, b}, {b, a, c}, {c, b, a}} {
		got := Combine(perm...)
		if !want.Equal(got) {
			t.Fatalf("combine is not commutative:\n%s", got)
		}
		// the excluded-from-equality columns must agree too
		for i, r := range got.Rows {
			approx(t, "extra", r.Extra, want.Rows[i].Extra)
			approx(t, "balance", r.Balance, want.Rows[i].Balance)
		}
	}
}

func TestCombineEqualsAdjusted(t *testing.T) {
	// an extra payment of +D at period p equals a synthetic loan of -D
	// starting at p+1 stacked on the untouched baseline
	adjusted := New(testInfo, 100_000)
	adjusted.AddExtraPayment(ledger.Payment{Amount: 5000, Period: 5})

	baseline := New(testInfo, 100_000)
	synthetic := NewWithExtras(testInfo, -5000, 6, nil)

	combined := Combine(baseline, synthetic)
	if !adjusted.Schedule().Equal(combined) {
		t.Fatalf("baseline + synthetic != adjusted:\n%s", combined)
	}
}

func TestSubtractConsistency(t *testing.T) {
	a := New(testInfo, 40_000)
	b := New(testInfo, 100_000)

	diff := Subtract(b, a)
	restored := CombineTables(a.Schedule(), diff)

	if !b.Schedule().Equal(restored) {
		t.Fatalf("a + (b - a) != b:\n%s", restored)
	}
}

func TestSubtractTruncatesToShorter(t *testing.T) {
	long := New(Info{AnnualRate: 0.5, TotalPeriods: 12}, 100_000)
	short := New(testInfo, 100_000)

	diff := Subtract(long, short)
	if len(diff.Rows) != 10 {
		t.Fatalf("difference has %d rows, want 10", len(diff.Rows))
	}
}
