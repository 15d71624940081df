package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lingorelay/internal/database"
	"lingorelay/internal/models"
)

// AnalyticsService mirrors relayed traffic into MongoDB for the
// dashboard. The mirror is advisory: a failed write never blocks the
// relay pipeline.
type AnalyticsService struct {
	messages *mongo.Collection
}

// NewAnalyticsService creates the analytics mirror over MongoDB.
func NewAnalyticsService(mongoDB *database.MongoDB) *AnalyticsService {
	return &AnalyticsService{
		messages: mongoDB.Messages(),
	}
}

// StoreMessage records a relayed message with its English rendering.
func (s *AnalyticsService) StoreMessage(ctx context.Context, msg *models.TelegramMessage, lang, englishText string) error {
	doc := models.MessageDocument{
		Timestamp: time.Unix(msg.Date, 0).UTC(),
		CreatedAt: time.Now().UTC(),
	}
	doc.User.UserID = msg.From.ID
	doc.User.Username = msg.From.Username
	doc.User.FirstName = msg.From.FirstName
	doc.User.LastName = msg.From.LastName
	doc.Message.ChatID = msg.Chat.ID
	doc.Message.MessageID = msg.MessageID
	doc.Message.OriginalText = msg.Text
	doc.Message.OriginalLang = lang
	doc.Message.EnglishText = englishText

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.messages.InsertOne(insertCtx, doc)
	if err != nil {
		return fmt.Errorf("failed to store message in MongoDB: %w", err)
	}

	log.Printf("📊 [ANALYTICS] Stored message in MongoDB with ID: %v", result.InsertedID)
	return nil
}

// Stats aggregates message counts by language and unique senders.
func (s *AnalyticsService) Stats(ctx context.Context) (*models.RelayStats, error) {
	statsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err := s.messages.CountDocuments(statsCtx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	users, err := s.messages.Distinct(statsCtx, "user.user_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count unique users: %w", err)
	}

	cursor, err := s.messages.Aggregate(statsCtx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$message.original_lang"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate languages: %w", err)
	}
	defer cursor.Close(statsCtx)

	var languages []models.LanguageStat
	if err := cursor.All(statsCtx, &languages); err != nil {
		return nil, fmt.Errorf("failed to decode language stats: %w", err)
	}

	return &models.RelayStats{
		TotalMessages: total,
		UniqueUsers:   int64(len(users)),
		Languages:     languages,
	}, nil
}

// Recent returns the most recently relayed messages, newest first.
func (s *AnalyticsService) Recent(ctx context.Context, limit int64) ([]models.MessageDocument, error) {
	findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.messages.Find(findCtx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer cursor.Close(findCtx)

	var docs []models.MessageDocument
	if err := cursor.All(findCtx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recent messages: %w", err)
	}
	return docs, nil
}

// PruneOlderThan removes mirrored documents past the retention window.
// Called by the retention sweeper alongside the durable purge.
func (s *AnalyticsService) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-age).UTC()
	result, err := s.messages.DeleteMany(pruneCtx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune analytics messages: %w", err)
	}
	return result.DeletedCount, nil
}
