package messages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cbieks/authentix/pkg/db/models"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxBodyLength = 2000

type listingFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// SendInput carries a new message from the authenticated sender.
type SendInput struct {
	ListingID   uuid.UUID
	RecipientID uuid.UUID
	Body        string
}

// Service exposes listing-scoped messaging between buyers and sellers.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*models.Message, error)
	Thread(ctx context.Context, userID, listingID, otherID uuid.UUID) ([]models.Message, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the message service.
type ServiceParams struct {
	Repo        *Repository
	ListingRepo listingFinder
}

type service struct {
	repo     *Repository
	listings listingFinder
}

// NewService builds a message service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "message repo required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listing repo required")
	}
	return &service{
		repo:     params.Repo,
		listings: params.ListingRepo,
	}, nil
}

func (s *service) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*models.Message, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if len(body) > maxBodyLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}
	if input.RecipientID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}

	recipientID := input.RecipientID
	if recipientID == uuid.Nil {
		recipientID = listing.SellerID
	}
	if recipientID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}
	// only the seller and an interested buyer converse about a listing
	if senderID != listing.SellerID && recipientID != listing.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation must involve the seller")
	}

	message, err := s.repo.Create(ctx, &models.Message{
		ListingID:   listing.ID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}
	return message, nil
}

// Thread returns the conversation and marks messages addressed to the caller read.
func (s *service) Thread(ctx context.Context, userID, listingID, otherID uuid.UUID) ([]models.Message, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if listingID == uuid.Nil || otherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing and counterpart are required")
	}

	messages, err := s.repo.ListThread(ctx, listingID, userID, otherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list thread")
	}
	if err := s.repo.MarkThreadRead(ctx, listingID, userID, otherID, time.Now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark thread read")
	}
	return messages, nil
}

func (s *service) Inbox(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	messages, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inbox")
	}
	return messages, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}
