package documents

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseInsensitive is the collation of the owner/name index; queries on the name must use it too.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type mongoDocument struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"userId"`
	DocumentName     string    `bson:"documentName"`
	OriginalFileName string    `bson:"originalFileName"`
	FileType         string    `bson:"fileType"`
	TargetLanguage   string    `bson:"targetLanguage"`
	OriginalText     string    `bson:"originalText"`
	TranslatedText   string    `bson:"translatedText"`
	ExtractionOK     bool      `bson:"extractionOk"`
	TranslationOK    bool      `bson:"translationOk"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

func toMongoDocument(d Document) mongoDocument {
	return mongoDocument(d)
}

func (m mongoDocument) toDocument() Document {
	return Document(m)
}

// MongoRepo stores documents in a MongoDB collection.
type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(collection *mongo.Collection) *MongoRepo {
	return &MongoRepo{collection: collection}
}

// EnsureIndexes creates the unique (userId, documentName) index and the listing index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "documentName", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive).SetName("owner_name_ci_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_created"),
		},
	})
	return err
}

func (r *MongoRepo) Create(ctx context.Context, doc Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, toMongoDocument(doc))
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	return err
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Document, error) {
	return r.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

func (r *MongoRepo) FindByOwnerAndName(ctx context.Context, ownerID, name string) (Document, error) {
	return r.findOne(ctx,
		bson.M{"userId": ownerID, "documentName": name},
		options.FindOne().SetCollation(caseInsensitive),
	)
}

func (r *MongoRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.collection.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	var records []mongoDocument
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDocument())
	}
	return out, nil
}

func (r *MongoRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"userId": ownerID})
	return int(n), err
}

func (r *MongoRepo) UpdateContent(ctx context.Context, id string, content Content) (Document, error) {
	return r.update(ctx, id, bson.M{
		"originalText":   content.OriginalText,
		"translatedText": content.TranslatedText,
		"extractionOk":   content.ExtractionOK,
		"translationOk":  content.TranslationOK,
	})
}

func (r *MongoRepo) UpdateFields(ctx context.Context, id string, upd FieldsUpdate) (Document, error) {
	set := bson.M{}
	if upd.DocumentName != nil {
		set["documentName"] = *upd.DocumentName
	}
	if upd.TranslatedText != nil {
		set["translatedText"] = *upd.TranslatedText
	}
	return r.update(ctx, id, set)
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepo) update(ctx context.Context, id string, set bson.M) (Document, error) {
	set["updatedAt"] = time.Now().UTC()
	var out mongoDocument
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return Document{}, ErrConflict
		}
		return Document{}, err
	}
	return out.toDocument(), nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (Document, error) {
	var out mongoDocument
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return out.toDocument(), nil
}

var _ Repo = (*MongoRepo)(nil)
