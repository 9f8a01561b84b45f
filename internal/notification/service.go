package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	attentiondomain "famsync-backend/internal/attention/domain"
	authrepo "famsync-backend/internal/auth/repository"
	"famsync-backend/pkg/fcm"
)

// Push payload types understood by the mobile and web clients
const (
	TypeAttentionRing     = "ATTENTION_RING"
	TypeAttentionResolved = "ATTENTION_RESOLVED"
)

// Android channels registered by the client app
const (
	channelAttention     = "attention"
	channelAttentionLoud = "attention_loud"
)

// Sender is the push transport. *fcm.Client satisfies it.
type Sender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) (*fcm.SendResult, error)
}

// Service delivers attention pushes to every registered device of a member.
// Delivery is best effort: errors are returned for logging and nothing is retried.
type Service struct {
	fcmRepo authrepo.FCMTokenRepository
	sender  Sender
}

// NewService creates a dispatcher. A nil sender disables push delivery.
func NewService(fcmRepo authrepo.FCMTokenRepository, sender Sender) *Service {
	return &Service{
		fcmRepo: fcmRepo,
		sender:  sender,
	}
}

// AttentionRoute is the client route that opens the acknowledge screen
func AttentionRoute(familyID, requestID string) string {
	return fmt.Sprintf("/families/%s/attention/%s", familyID, requestID)
}

// DeliverRing pushes the "come here now" alert to the target's devices
func (s *Service) DeliverRing(ctx context.Context, req *attentiondomain.AttentionRequest) error {
	body := "Someone in your family needs you"
	if req.Message != nil && *req.Message != "" {
		body = *req.Message
	}

	channel := channelAttention
	sound := "attention.caf"
	if req.Intensity == attentiondomain.IntensityLoud {
		channel = channelAttentionLoud
		sound = "attention_loud.caf"
	}

	ttl := time.Until(req.ExpiresAt)
	if ttl <= 0 {
		// already past the deadline; nothing useful to ring
		return nil
	}

	return s.deliver(ctx, req.TargetUID, fcm.NotificationData{
		Title: "Attention!",
		Body:  body,
		Data: map[string]string{
			"type":      TypeAttentionRing,
			"requestId": req.ID,
			"familyId":  req.FamilyID,
		},
		HighPriority: true,
		ChannelID:    channel,
		Sound:        sound,
		TTL:          ttl,
		ClickAction:  AttentionRoute(req.FamilyID, req.ID),
	})
}

// DeliverResolved tells the target's other devices to stop ringing
func (s *Service) DeliverResolved(ctx context.Context, req *attentiondomain.AttentionRequest) error {
	return s.deliver(ctx, req.TargetUID, fcm.NotificationData{
		Data: map[string]string{
			"type":      TypeAttentionResolved,
			"requestId": req.ID,
			"familyId":  req.FamilyID,
			"status":    string(req.Status),
		},
		DataOnly:     true,
		HighPriority: true,
		TTL:          time.Minute,
	})
}

func (s *Service) deliver(ctx context.Context, userID string, notification fcm.NotificationData) error {
	if s.sender == nil {
		log.Printf("[FCM] Push sender not configured, skipping %s for user %s", notification.Data["type"], userID)
		return nil
	}

	tokens, err := s.fcmRepo.GetTokensByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load FCM tokens for user %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		log.Printf("[FCM] No tokens found for user %s, skipping push notification", userID)
		return nil
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	result, err := s.sender.SendToDevices(ctx, tokenStrings, notification)
	if err != nil {
		return fmt.Errorf("failed to send %s to user %s: %w", notification.Data["type"], userID, err)
	}

	log.Printf("[FCM] Sent %s to %d/%d devices of user %s",
		notification.Data["type"], result.SuccessCount, len(tokenStrings), userID)

	// Cleanup tokens the platform no longer knows about
	for _, token := range result.StaleTokens {
		if err := s.fcmRepo.DeleteToken(ctx, token); err != nil {
			log.Printf("[FCM] Failed to delete stale token: %v", err)
		}
	}
	return nil
}
