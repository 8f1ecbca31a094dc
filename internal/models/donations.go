package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DonationColName = "donations"

// Donation records a one-off donation payment. Amount is in the smallest
// currency unit, as Stripe expects.
type Donation struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID         string             `bson:"donor_id,omitempty" json:"donor_id,omitempty"`
	Amount          int64              `bson:"amount" json:"amount" validate:"required,min=1"`
	Currency        string             `bson:"currency" json:"currency" validate:"required,len=3"`
	Message         string             `bson:"message,omitempty" json:"message,omitempty"`
	PaymentIntentID string             `bson:"payment_intent_id" json:"payment_intent_id"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

type DonationRepo interface {
	RecordDonation(ctx context.Context, donation *Donation) (*Donation, error)
	ListDonationsByDonor(ctx context.Context, donorID string) ([]*Donation, error)
}

func (mdb *MongodbRepo) RecordDonation(ctx context.Context, donation *Donation) (*Donation, error) {
	col, err := mdb.GetCollection(ctx, BookingDbName, DonationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if donation.ID.IsZero() {
		donation.ID = primitive.NewObjectID()
	}
	donation.CreatedAt = time.Now()

	if _, err := col.InsertOne(ctx, donation); err != nil {
		return nil, fmt.Errorf("error inserting donation: %v", err)
	}

	return donation, nil
}

func (mdb *MongodbRepo) ListDonationsByDonor(ctx context.Context, donorID string) ([]*Donation, error) {
	col, err := mdb.GetCollection(ctx, BookingDbName, DonationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := col.Find(ctx, bson.M{"donor_id": donorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding donations: %v", err)
	}
	defer cursor.Close(ctx)

	var donations []*Donation
	for cursor.Next(ctx) {
		var d Donation
		if err := cursor.Decode(&d); err != nil {
			return nil, fmt.Errorf("error decoding donation: %v", err)
		}
		donations = append(donations, &d)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return donations, nil
}
