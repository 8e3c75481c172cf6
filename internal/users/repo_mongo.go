package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseInsensitive makes equality on strings ignore case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type mongoUser struct {
	ID           string     `bson:"_id"`
	FullName     string     `bson:"fullName"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password"`
	UserImage    string     `bson:"userImage,omitempty"`
	ImageKey     string     `bson:"imageKey,omitempty"`
	Languages    []string   `bson:"languages"`
	Documents    []string   `bson:"documents"`
	OTPHash      string     `bson:"otp,omitempty"`
	OTPExpiry    *time.Time `bson:"otpExpiry,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func toMongoUser(u User) mongoUser {
	langs := u.Languages
	if langs == nil {
		langs = []string{}
	}
	docs := u.Documents
	if docs == nil {
		docs = []string{}
	}
	return mongoUser{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		UserImage:    u.UserImage,
		ImageKey:     u.ImageKey,
		Languages:    langs,
		Documents:    docs,
		OTPHash:      u.OTPHash,
		OTPExpiry:    u.OTPExpiry,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m mongoUser) toUser() User {
	return User{
		ID:           m.ID,
		FullName:     m.FullName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		UserImage:    m.UserImage,
		ImageKey:     m.ImageKey,
		Languages:    m.Languages,
		Documents:    m.Documents,
		OTPHash:      m.OTPHash,
		OTPExpiry:    m.OTPExpiry,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// MongoRepo stores users in a MongoDB collection with the document set embedded.
type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(collection *mongo.Collection) *MongoRepo {
	return &MongoRepo{collection: collection}
}

// EnsureIndexes creates the case-insensitive unique email index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive).SetName("email_ci_unique"),
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, user User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, toMongoUser(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.findOne(ctx, bson.M{"_id": userID}, options.FindOne())
}

func (r *MongoRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive))
}

func (r *MongoRepo) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.FullName != nil {
		set["fullName"] = *upd.FullName
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Languages != nil {
		set["languages"] = *upd.Languages
	}
	if upd.UserImage != nil {
		set["userImage"] = *upd.UserImage
	}
	if upd.ImageKey != nil {
		set["imageKey"] = *upd.ImageKey
	}

	var out mongoUser
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return out.toUser(), nil
}

func (r *MongoRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepo) SetOTP(ctx context.Context, userID, otpHash string, expiry time.Time) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"otp": otpHash, "otpExpiry": expiry, "updatedAt": time.Now().UTC()}})
}

func (r *MongoRepo) ClearOTP(ctx context.Context, userID string) error {
	return r.updateOne(ctx, userID, bson.M{
		"$unset": bson.M{"otp": "", "otpExpiry": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) LinkDocument(ctx context.Context, userID, documentID string) error {
	return r.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"documents": documentID}})
}

func (r *MongoRepo) UnlinkDocument(ctx context.Context, userID, documentID string) error {
	return r.updateOne(ctx, userID, bson.M{"$pull": bson.M{"documents": documentID}})
}

func (r *MongoRepo) ClearDocuments(ctx context.Context, userID string) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"documents": []string{}}})
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (User, error) {
	var out mongoUser
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return out.toUser(), nil
}

func (r *MongoRepo) updateOne(ctx context.Context, userID string, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*MongoRepo)(nil)
