package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingDbName  = "halqa"
	BookingColName = "bookings"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is a scheduled lesson between a student and a teacher.
type Booking struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID       string             `bson:"student_id" json:"student_id" validate:"required"`
	TeacherID       string             `bson:"teacher_id" json:"teacher_id" validate:"required"`
	ScheduledAt     time.Time          `bson:"scheduled_at" json:"scheduled_at" validate:"required"`
	DurationMinutes int                `bson:"duration_minutes" json:"duration_minutes" validate:"required,min=15,max=240"`
	Status          BookingStatus      `bson:"status" json:"status"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// ErrBookingNotFound covers both a missing booking and one the caller has no
// claim on; the two are indistinguishable on purpose.
var ErrBookingNotFound = errors.New("booking not found")

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) (*Booking, error)
	ListBookingsByStudent(ctx context.Context, studentID string) ([]*Booking, error)
	ListBookingsByTeacher(ctx context.Context, teacherID string) ([]*Booking, error)
	// CancelBooking and ConfirmBooking scope the status write to the caller
	// inside the update filter, so ownership is enforced atomically with the
	// mutation rather than checked after it.
	CancelBooking(ctx context.Context, id primitive.ObjectID, callerID string) (*Booking, error)
	ConfirmBooking(ctx context.Context, id primitive.ObjectID, teacherID string) (*Booking, error)
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	now := time.Now()
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.Status = BookingPending
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if _, err := col.InsertOne(ctx, booking); err != nil {
		return nil, fmt.Errorf("error inserting booking: %v", err)
	}

	return booking, nil
}

func (mdb *MongodbRepo) ListBookingsByStudent(ctx context.Context, studentID string) ([]*Booking, error) {
	return mdb.listBookings(ctx, bson.M{"student_id": studentID})
}

func (mdb *MongodbRepo) ListBookingsByTeacher(ctx context.Context, teacherID string) ([]*Booking, error) {
	return mdb.listBookings(ctx, bson.M{"teacher_id": teacherID})
}

func (mdb *MongodbRepo) listBookings(ctx context.Context, filter bson.M) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.M{"scheduled_at": 1})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %v", err)
	}
	defer cursor.Close(ctx)

	var bookings []*Booking
	for cursor.Next(ctx) {
		var b Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %v", err)
		}
		bookings = append(bookings, &b)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return bookings, nil
}

// Either party may cancel.
func (mdb *MongodbRepo) CancelBooking(ctx context.Context, id primitive.ObjectID, callerID string) (*Booking, error) {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"student_id": callerID},
			bson.M{"teacher_id": callerID},
		},
	}
	return mdb.updateBookingStatus(ctx, filter, BookingCancelled)
}

// Only the booked teacher may confirm.
func (mdb *MongodbRepo) ConfirmBooking(ctx context.Context, id primitive.ObjectID, teacherID string) (*Booking, error) {
	filter := bson.M{"_id": id, "teacher_id": teacherID}
	return mdb.updateBookingStatus(ctx, filter, BookingConfirmed)
}

func (mdb *MongodbRepo) updateBookingStatus(ctx context.Context, filter bson.M, status BookingStatus) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingDbName, BookingColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var result Booking
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error updating booking status: %v", err)
	}

	return &result, nil
}
