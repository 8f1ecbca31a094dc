package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/majdjoubi/halqa/internal/helpers"
	"github.com/majdjoubi/halqa/internal/models"
	"github.com/majdjoubi/halqa/internal/services"
)

func principalFrom(c *gin.Context) (*helpers.Principal, bool) {
	claims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return nil, false
	}
	principal, ok := claims.(*helpers.Principal)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
		return nil, false
	}
	return principal, true
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}

		var req struct {
			TeacherID       string    `json:"teacher_id" binding:"required"`
			ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
			DurationMinutes int       `json:"duration_minutes" binding:"required"`
			Notes           string    `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		booking := &models.Booking{
			StudentID:       principal.UserID,
			TeacherID:       req.TeacherID,
			ScheduledAt:     req.ScheduledAt,
			DurationMinutes: req.DurationMinutes,
			Notes:           req.Notes,
		}

		created, err := bs.CreateBooking(c.Request.Context(), booking)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(created, "booking created"))
	}
}

// ListMyBookings returns the caller's bookings: lessons they booked as a
// student, or lessons booked with them as a teacher.
func ListMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}

		var bookings []*models.Booking
		var err error
		if principal.IsTeacher() {
			bookings, err = bs.ListBookingsByTeacher(c.Request.Context(), principal.UserID)
		} else {
			bookings, err = bs.ListBookingsByStudent(c.Request.Context(), principal.UserID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(bookings, ""))
	}
}

// CancelBooking cancels one of the caller's bookings. Ownership is part of
// the update itself; a booking the caller has no claim on is reported as not
// found and left untouched.
func CancelBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}

		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("booking ID is required"))
			return
		}

		booking, err := bs.CancelBooking(c.Request.Context(), id, principal.UserID)
		if err != nil {
			if errors.Is(err, models.ErrBookingNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse("booking not found"))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(booking, "booking cancelled"))
	}
}

// ConfirmBooking lets the teacher accept a pending booking made with them.
func ConfirmBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			return
		}
		if !principal.IsTeacher() {
			c.JSON(http.StatusForbidden, models.ErrorResponse("only teachers can confirm bookings"))
			return
		}

		id := c.Param("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("booking ID is required"))
			return
		}

		booking, err := bs.ConfirmBooking(c.Request.Context(), id, principal.UserID)
		if err != nil {
			if errors.Is(err, models.ErrBookingNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse("booking not found"))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(booking, "booking confirmed"))
	}
}
