package database

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ceramics-booking/errors"
	"ceramics-booking/model"
)

const mongoTimeout = 5 * time.Second

// MongoStore keeps the same collections as the relational schema. Transactions need a
// replica set deployment.
type MongoStore struct {
	client       *mongo.Client
	slots        *mongo.Collection
	bookings     *mongo.Collection
	experiences  *mongo.Collection
	participants *mongo.Collection
	waitlist     *mongo.Collection
}

type bookingDoc struct {
	ID             string    `bson:"_id"`
	SlotID         string    `bson:"slot_id"`
	ExperienceID   string    `bson:"experience_id,omitempty"`
	CustomerName   string    `bson:"customer_name"`
	CustomerEmail  string    `bson:"customer_email"`
	CustomerPhone  string    `bson:"customer_phone"`
	NumberOfPeople int       `bson:"number_of_people"`
	TotalPrice     string    `bson:"total_price"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
}

type experienceDoc struct {
	ID              string `bson:"_id"`
	Name            string `bson:"name"`
	Description     string `bson:"description"`
	DurationMinutes int    `bson:"duration_minutes"`
	Price           string `bson:"price"`
	IsActive        bool   `bson:"is_active"`
}

type participantDoc struct {
	ID        string    `bson:"_id"`
	GroupID   string    `bson:"group_id"`
	EventName string    `bson:"event_name"`
	EventDate string    `bson:"event_date"`
	EventTime string    `bson:"event_time"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Phone     string    `bson:"phone"`
	CreatedAt time.Time `bson:"created_at"`
}

type waitlistDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	EventName string    `bson:"event_name"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Unavailable(err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Unavailable(err)
	}

	db := client.Database(dbName)
	return &MongoStore{
		client:       client,
		slots:        db.Collection("available_slots"),
		bookings:     db.Collection("bookings"),
		experiences:  db.Collection("experiences"),
		participants: db.Collection("event_participants"),
		waitlist:     db.Collection("event_waitlist"),
	}, nil
}

// EnsureIndexes creates the query indexes and the waitlist uniqueness constraint.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.slots: {{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}},
			Options: options.Index().SetName("date_start_idx"),
		}},
		s.bookings: {{
			Keys:    bson.D{{Key: "slot_id", Value: 1}},
			Options: options.Index().SetName("slot_idx"),
		}},
		s.participants: {{
			Keys:    bson.D{{Key: "event_name", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetName("event_group_idx"),
		}},
		s.waitlist: {{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "event_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_email_event"),
		}},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return mapMongoError(err, coll.Name()+" indexes")
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.Unavailable(err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// InTx runs fn in a session transaction. Operations pick the session up from ctx.
func (s *MongoStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return mapMongoError(err, "session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *MongoStore) ListSlots(ctx context.Context, filter SlotFilter) ([]model.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	query := bson.M{}
	dateRange := bson.M{}
	if filter.From != "" {
		dateRange["$gte"] = filter.From
	}
	if filter.To != "" {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.OnlyAvailable {
		query["is_available"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}})
	cursor, err := s.slots.Find(ctx, query, opts)
	if err != nil {
		return nil, mapMongoError(err, "slots")
	}
	slots := []model.Slot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, mapMongoError(err, "slots")
	}
	return slots, nil
}

func (s *MongoStore) GetSlot(ctx context.Context, id string) (model.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var slot model.Slot
	if err := s.slots.FindOne(ctx, bson.M{"_id": id}).Decode(&slot); err != nil {
		return model.Slot{}, mapMongoError(err, "slot "+id)
	}
	return slot, nil
}

func (s *MongoStore) SetAvailability(ctx context.Context, target SlotTarget, available bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	query := bson.M{}
	if target.ID != "" {
		query["_id"] = target.ID
	}
	if target.Date != "" {
		query["date"] = target.Date
	}
	if len(query) == 0 {
		return 0, errors.Validation("slot id or date is required")
	}

	update := bson.M{"$set": bson.M{"is_available": available, "updated_at": time.Now().UTC()}}
	res, err := s.slots.UpdateMany(ctx, query, update)
	if err != nil {
		return 0, mapMongoError(err, "slot")
	}
	return res.MatchedCount, nil
}

// CloseDay claims the target with a conditional update before closing the rest of its date.
// The claim and the date-wide update are separate writes; callers must run CloseDay inside
// InTx so a concurrent claim on the same date aborts with a write conflict.
func (s *MongoStore) CloseDay(ctx context.Context, slotID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var target model.Slot
	err := s.slots.FindOne(ctx, bson.M{"_id": slotID}).Decode(&target)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, mapMongoError(err, "slot "+slotID)
	}

	now := time.Now().UTC()
	closed := bson.M{"$set": bson.M{"is_available": false, "updated_at": now}}
	claim, err := s.slots.UpdateOne(ctx, bson.M{"_id": slotID, "is_available": true}, closed)
	if err != nil {
		return 0, mapMongoError(err, "slot "+slotID)
	}
	if claim.ModifiedCount == 0 {
		return 0, nil
	}

	rest, err := s.slots.UpdateMany(ctx, bson.M{"date": target.Date, "is_available": true}, closed)
	if err != nil {
		return 0, mapMongoError(err, "slots on "+target.Date)
	}
	return claim.ModifiedCount + rest.ModifiedCount, nil
}

func (s *MongoStore) InsertSlots(ctx context.Context, drafts []model.SlotDraft) ([]model.Slot, error) {
	for _, draft := range drafts {
		if err := checkDraft(draft); err != nil {
			return nil, err
		}
	}
	if len(drafts) == 0 {
		return []model.Slot{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	now := time.Now().UTC()
	slots := make([]model.Slot, len(drafts))
	docs := make([]interface{}, len(drafts))
	for i, draft := range drafts {
		slots[i] = model.Slot{
			ID:           uuid.NewString(),
			Date:         draft.Date,
			StartTime:    draft.StartTime,
			EndTime:      draft.EndTime,
			IsAvailable:  true,
			Capacity:     draft.Capacity,
			ExperienceID: draft.ExperienceID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		docs[i] = slots[i]
	}

	if _, err := s.slots.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, mapMongoError(err, "slot")
	}
	return slots, nil
}

func (s *MongoStore) DeleteSlot(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	count, err := s.bookings.CountDocuments(ctx, bson.M{"slot_id": id})
	if err != nil {
		return mapMongoError(err, "slot "+id)
	}
	if count > 0 {
		return errors.New(errors.KindConflict, "slot %s has bookings", id)
	}

	res, err := s.slots.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err, "slot "+id)
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("slot %s not found", id)
	}
	return nil
}

func (d bookingDoc) toModel() (model.Booking, error) {
	total, err := decimal.NewFromString(d.TotalPrice)
	if err != nil {
		return model.Booking{}, err
	}
	return model.Booking{
		ID:             d.ID,
		SlotID:         d.SlotID,
		ExperienceID:   d.ExperienceID,
		CustomerName:   d.CustomerName,
		CustomerEmail:  d.CustomerEmail,
		CustomerPhone:  d.CustomerPhone,
		NumberOfPeople: d.NumberOfPeople,
		TotalPrice:     total,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func (s *MongoStore) InsertBooking(ctx context.Context, booking model.Booking) (model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	count, err := s.slots.CountDocuments(ctx, bson.M{"_id": booking.SlotID})
	if err != nil {
		return model.Booking{}, mapMongoError(err, "booking")
	}
	if count == 0 {
		return model.Booking{}, errors.New(errors.KindConflict, "slot %s does not exist", booking.SlotID)
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	doc := bookingDoc{
		ID:             booking.ID,
		SlotID:         booking.SlotID,
		ExperienceID:   booking.ExperienceID,
		CustomerName:   booking.CustomerName,
		CustomerEmail:  booking.CustomerEmail,
		CustomerPhone:  booking.CustomerPhone,
		NumberOfPeople: booking.NumberOfPeople,
		TotalPrice:     booking.TotalPrice.String(),
		Status:         booking.Status,
		CreatedAt:      booking.CreatedAt,
	}
	if _, err := s.bookings.InsertOne(ctx, doc); err != nil {
		return model.Booking{}, mapMongoError(err, "booking")
	}
	return booking, nil
}

func (s *MongoStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc bookingDoc
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.Booking{}, mapMongoError(err, "booking "+id)
	}
	booking, err := doc.toModel()
	if err != nil {
		return model.Booking{}, mapMongoError(err, "booking "+id)
	}
	return booking, nil
}

func (s *MongoStore) DeleteBooking(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := s.bookings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err, "booking "+id)
	}
	if res.DeletedCount == 0 {
		return errors.NotFound("booking %s not found", id)
	}
	return nil
}

func (s *MongoStore) ListBookings(ctx context.Context, filter BookingFilter) ([]model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	query := bson.M{}
	if filter.SlotID != "" {
		query["slot_id"] = filter.SlotID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.bookings.Find(ctx, query, opts)
	if err != nil {
		return nil, mapMongoError(err, "bookings")
	}
	var docs []bookingDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err, "bookings")
	}

	bookings := make([]model.Booking, 0, len(docs))
	for _, doc := range docs {
		booking, err := doc.toModel()
		if err != nil {
			return nil, mapMongoError(err, "bookings")
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (d experienceDoc) toModel() (model.Experience, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return model.Experience{}, err
	}
	return model.Experience{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		DurationMinutes: d.DurationMinutes,
		Price:           price,
		IsActive:        d.IsActive,
	}, nil
}

func (s *MongoStore) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := s.experiences.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, mapMongoError(err, "experiences")
	}
	var docs []experienceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err, "experiences")
	}

	experiences := make([]model.Experience, 0, len(docs))
	for _, doc := range docs {
		experience, err := doc.toModel()
		if err != nil {
			return nil, mapMongoError(err, "experiences")
		}
		experiences = append(experiences, experience)
	}
	return experiences, nil
}

func (s *MongoStore) GetExperience(ctx context.Context, id string) (model.Experience, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc experienceDoc
	if err := s.experiences.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return model.Experience{}, mapMongoError(err, "experience "+id)
	}
	experience, err := doc.toModel()
	if err != nil {
		return model.Experience{}, mapMongoError(err, "experience "+id)
	}
	return experience, nil
}

func (s *MongoStore) InsertParticipants(ctx context.Context, participants []model.EventParticipant) ([]model.EventParticipant, error) {
	if len(participants) == 0 {
		return []model.EventParticipant{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	now := time.Now().UTC()
	inserted := make([]model.EventParticipant, len(participants))
	docs := make([]interface{}, len(participants))
	for i, p := range participants {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.CreatedAt = now
		inserted[i] = p
		docs[i] = participantDoc(p)
	}

	if _, err := s.participants.InsertMany(ctx, docs); err != nil {
		return nil, mapMongoError(err, "event participant")
	}
	return inserted, nil
}

func (s *MongoStore) ListParticipants(ctx context.Context, filter ParticipantFilter) ([]model.EventParticipant, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	query := bson.M{}
	if filter.EventName != "" {
		query["event_name"] = filter.EventName
	}
	if filter.GroupID != "" {
		query["group_id"] = filter.GroupID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := s.participants.Find(ctx, query, opts)
	if err != nil {
		return nil, mapMongoError(err, "event participants")
	}
	var docs []participantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err, "event participants")
	}

	participants := make([]model.EventParticipant, len(docs))
	for i, doc := range docs {
		participants[i] = model.EventParticipant(doc)
	}
	return participants, nil
}

func (s *MongoStore) InsertWaitlistEntry(ctx context.Context, entry model.WaitlistEntry) (model.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	if _, err := s.waitlist.InsertOne(ctx, waitlistDoc(entry)); err != nil {
		return model.WaitlistEntry{}, mapMongoError(err, "waitlist entry")
	}
	return entry, nil
}

func (s *MongoStore) ListWaitlist(ctx context.Context, eventName string) ([]model.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	query := bson.M{}
	if eventName != "" {
		query["event_name"] = eventName
	}
	cursor, err := s.waitlist.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, mapMongoError(err, "waitlist")
	}
	var docs []waitlistDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapMongoError(err, "waitlist")
	}

	entries := make([]model.WaitlistEntry, len(docs))
	for i, doc := range docs {
		entries[i] = model.WaitlistEntry(doc)
	}
	return entries, nil
}

func mapMongoError(err error, subject string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return errors.NotFound("%s not found", subject)
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.New(errors.KindConflict, "%s already exists", subject).Wrap(err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable(err)
	}
	return errors.New(errors.KindInternal, "database error on %s", subject).Wrap(err)
}
