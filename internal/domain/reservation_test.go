package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		role ActorRole
		from ReservationStatus
		to   ReservationStatus
		want bool
	}{
		{name: "client cancels pending", role: ActorRoleClient, from: ReservationStatusPending, to: ReservationStatusCancelled, want: true},
		{name: "client cancels confirmed", role: ActorRoleClient, from: ReservationStatusConfirmed, to: ReservationStatusCancelled, want: true},
		{name: "client cannot confirm", role: ActorRoleClient, from: ReservationStatusPending, to: ReservationStatusConfirmed, want: false},
		{name: "client cannot complete", role: ActorRoleClient, from: ReservationStatusConfirmed, to: ReservationStatusCompleted, want: false},
		{name: "client cannot mark no-show", role: ActorRoleClient, from: ReservationStatusConfirmed, to: ReservationStatusNoShow, want: false},
		{name: "owner confirms pending", role: ActorRoleOwner, from: ReservationStatusPending, to: ReservationStatusConfirmed, want: true},
		{name: "owner completes confirmed", role: ActorRoleOwner, from: ReservationStatusConfirmed, to: ReservationStatusCompleted, want: true},
		{name: "owner marks no-show", role: ActorRoleOwner, from: ReservationStatusConfirmed, to: ReservationStatusNoShow, want: true},
		{name: "staff cancels pending", role: ActorRoleStaff, from: ReservationStatusPending, to: ReservationStatusCancelled, want: true},
		{name: "no exit from cancelled", role: ActorRoleOwner, from: ReservationStatusCancelled, to: ReservationStatusConfirmed, want: false},
		{name: "no exit from completed", role: ActorRoleOwner, from: ReservationStatusCompleted, to: ReservationStatusCancelled, want: false},
		{name: "no exit from no-show", role: ActorRoleStaff, from: ReservationStatusNoShow, to: ReservationStatusConfirmed, want: false},
		{name: "unknown target status", role: ActorRoleOwner, from: ReservationStatusPending, to: ReservationStatus("held"), want: false},
		{name: "unknown role", role: ActorRole("admin"), from: ReservationStatusPending, to: ReservationStatusCancelled, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.role, tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s, %s) = %v, want %v", tc.role, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(true); got != ReservationStatusConfirmed {
		t.Fatalf("InitialStatus(true) = %s, want confirmed", got)
	}
	if got := InitialStatus(false); got != ReservationStatusPending {
		t.Fatalf("InitialStatus(false) = %s, want pending", got)
	}
}

func TestReservationStatusTerminal(t *testing.T) {
	terminal := []ReservationStatus{ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []ReservationStatus{ReservationStatusPending, ReservationStatusConfirmed} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestReservationSpan(t *testing.T) {
	r := Reservation{StartMinutes: 600, EndMinutes: 660}
	if got := r.Span(); got != (Interval{Start: 600, End: 660}) {
		t.Fatalf("Span = %+v", got)
	}
}
