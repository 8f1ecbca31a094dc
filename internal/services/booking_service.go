package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/majdjoubi/halqa/internal/events"
	"github.com/majdjoubi/halqa/internal/models"
)

// BookingService manages lesson bookings between students and teachers.
type BookingService struct {
	bookings models.BookingRepo
	producer events.Producer
	logger   *slog.Logger
}

func NewBookingService(bookings models.BookingRepo, producer events.Producer, logger *slog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		producer: producer,
		logger:   logger,
	}
}

func (bs *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if err := models.Validate.Struct(booking); err != nil {
		return nil, fmt.Errorf("invalid booking data: %v", err)
	}
	if booking.StudentID == booking.TeacherID {
		return nil, fmt.Errorf("cannot book a lesson with yourself")
	}
	if booking.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future")
	}

	created, err := bs.bookings.CreateBooking(ctx, booking)
	if err != nil {
		return nil, err
	}

	if bs.producer != nil {
		payload := map[string]interface{}{
			"booking_id":   created.ID.Hex(),
			"student_id":   created.StudentID,
			"teacher_id":   created.TeacherID,
			"scheduled_at": created.ScheduledAt,
		}
		if err := bs.producer.Publish(ctx, events.KeyBookingCreated, payload); err != nil {
			bs.logger.Warn("booking event publish failed", "booking_id", created.ID.Hex(), "error", err)
		}
	}

	return created, nil
}

func (bs *BookingService) ListBookingsByStudent(ctx context.Context, studentID string) ([]*models.Booking, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("student ID is required")
	}
	return bs.bookings.ListBookingsByStudent(ctx, studentID)
}

func (bs *BookingService) ListBookingsByTeacher(ctx context.Context, teacherID string) ([]*models.Booking, error) {
	if strings.TrimSpace(teacherID) == "" {
		return nil, fmt.Errorf("teacher ID is required")
	}
	return bs.bookings.ListBookingsByTeacher(ctx, teacherID)
}

// CancelBooking marks a booking cancelled. The caller's id is part of the
// update filter, so a booking the caller neither made nor teaches is never
// touched and resolves to ErrBookingNotFound.
func (bs *BookingService) CancelBooking(ctx context.Context, id, callerID string) (*models.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format")
	}
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("caller ID is required")
	}
	return bs.bookings.CancelBooking(ctx, objectID, callerID)
}

// ConfirmBooking accepts a pending booking on behalf of its teacher; the
// update is scoped to bookings made with that teacher.
func (bs *BookingService) ConfirmBooking(ctx context.Context, id, teacherID string) (*models.Booking, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format")
	}
	if strings.TrimSpace(teacherID) == "" {
		return nil, fmt.Errorf("teacher ID is required")
	}
	return bs.bookings.ConfirmBooking(ctx, objectID, teacherID)
}
