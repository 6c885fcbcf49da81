package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"stagebook/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// authWrap guards every route that needs an authenticated subject.
func NewRouter(
	availability *controllers.AvailabilityController,
	bookings *controllers.BookingController,
	authWrap func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Availability
	mux.HandleFunc("GET /subjects/{subjectID}/availability", authWrap(availability.GetMonthAvailability))
	mux.HandleFunc("POST /subjects/{subjectID}/slots", authWrap(availability.CreateSlot))
	mux.HandleFunc("DELETE /slots/{slotID}", authWrap(availability.DeleteSlot))

	// Bookings
	mux.HandleFunc("POST /bookings", authWrap(bookings.SubmitBooking))
	mux.HandleFunc("GET /bookings/pending", authWrap(bookings.ListPending))
	mux.HandleFunc("POST /bookings/{bookingID}/accept", authWrap(bookings.AcceptBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/reject", authWrap(bookings.RejectBooking))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
