package mail

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelShop/app/models"
)

// WelcomeNotifier sends the welcome email when a user registers.
type WelcomeNotifier struct {
	dispatcher Dispatcher
}

func NewWelcomeNotifier(d Dispatcher) *WelcomeNotifier {
	return &WelcomeNotifier{dispatcher: d}
}

// NotifyUserRegistered only logs dispatch failures.
func (n *WelcomeNotifier) NotifyUserRegistered(ctx context.Context, user models.User) {
	err := n.dispatcher.Dispatch(ctx, Message{
		To:       user.Email,
		Template: TemplateWelcome,
		Data: map[string]string{
			"username": user.Username,
			"fullName": user.FullName,
		},
	})
	if err != nil {
		log.Errorf("[Mail] Welcome email for %s not queued: %v", user.Email, err)
	}
}
