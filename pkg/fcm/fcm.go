package fcm

import (
	"context"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Client wraps Firebase Cloud Messaging functionality
type Client struct {
	messagingClient *messaging.Client
}

// NewClient creates a new FCM client using the provided credentials file
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	log.Println("[FCM] Client initialized successfully")
	return &Client{
		messagingClient: messagingClient,
	}, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	Data  map[string]string // Custom data payload

	// DataOnly suppresses the visible notification block so the client app
	// handles the message itself (used for state updates)
	DataOnly bool
	// HighPriority wakes the device immediately
	HighPriority bool
	// ChannelID selects the Android notification channel (sound/vibration profile)
	ChannelID string
	// Sound is the platform sound name, empty for the default
	Sound string
	// TTL drops the message if it cannot be delivered in time; zero means FCM default
	TTL time.Duration
	// ClickAction is the in-app route opened when the notification is tapped
	ClickAction string
}

// SendResult reports a multicast outcome. Each token succeeds or fails on its own.
type SendResult struct {
	SuccessCount int
	FailedTokens []string
	// StaleTokens is the subset of FailedTokens FCM reported as no longer registered
	StaleTokens []string
}

// SendToDevices sends a push notification to multiple device tokens
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) (*SendResult, error) {
	if len(tokens) == 0 {
		return &SendResult{}, nil
	}

	response, err := c.messagingClient.SendEachForMulticast(ctx, BuildMulticastMessage(tokens, notification))
	if err != nil {
		return nil, fmt.Errorf("failed to send FCM multicast message: %w", err)
	}

	log.Printf("[FCM] Multicast sent: %d success, %d failures", response.SuccessCount, response.FailureCount)

	result := &SendResult{SuccessCount: response.SuccessCount}
	for i, resp := range response.Responses {
		if resp.Success {
			continue
		}
		result.FailedTokens = append(result.FailedTokens, tokens[i])
		if messaging.IsUnregistered(resp.Error) {
			result.StaleTokens = append(result.StaleTokens, tokens[i])
		}
		log.Printf("[FCM] Failed to send to token %s: %v", maskToken(tokens[i]), resp.Error)
	}

	return result, nil
}

// BuildMulticastMessage converts NotificationData into the per-platform FCM message
func BuildMulticastMessage(tokens []string, n NotificationData) *messaging.MulticastMessage {
	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	if n.ClickAction != "" {
		data["click_action"] = n.ClickAction
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
	}

	android := &messaging.AndroidConfig{Priority: "normal"}
	apnsHeaders := map[string]string{"apns-priority": "5"}
	webHeaders := map[string]string{}
	if n.HighPriority {
		android.Priority = "high"
		apnsHeaders["apns-priority"] = "10"
		webHeaders["Urgency"] = "high"
	}
	if n.TTL > 0 {
		ttl := n.TTL
		android.TTL = &ttl
		apnsHeaders["apns-expiration"] = fmt.Sprintf("%d", time.Now().Add(n.TTL).Unix())
		webHeaders["TTL"] = fmt.Sprintf("%d", int(n.TTL.Seconds()))
	}

	aps := &messaging.Aps{}
	if n.DataOnly {
		aps.ContentAvailable = true
		apnsHeaders["apns-push-type"] = "background"
		// background pushes must use priority 5
		apnsHeaders["apns-priority"] = "5"
	} else {
		msg.Notification = &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		}
		android.Notification = &messaging.AndroidNotification{
			ChannelID:   n.ChannelID,
			Sound:       n.Sound,
			ClickAction: n.ClickAction,
		}
		aps.Sound = n.Sound
		if aps.Sound == "" {
			aps.Sound = "default"
		}
		apnsHeaders["apns-push-type"] = "alert"
		msg.Webpush = &messaging.WebpushConfig{
			Headers: webHeaders,
			Notification: &messaging.WebpushNotification{
				Title:              n.Title,
				Body:               n.Body,
				Icon:               "/icon-192.svg",
				RequireInteraction: n.HighPriority,
			},
		}
	}

	msg.Android = android
	msg.APNS = &messaging.APNSConfig{
		Headers: apnsHeaders,
		Payload: &messaging.APNSPayload{Aps: aps},
	}
	if msg.Webpush == nil && len(webHeaders) > 0 {
		msg.Webpush = &messaging.WebpushConfig{Headers: webHeaders}
	}
	return msg
}

func maskToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
