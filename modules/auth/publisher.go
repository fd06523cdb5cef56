package auth

import (
	"log"

	"github.com/example/jobboard-auth/events"
	"github.com/go-monolith/mono"
)

// busPublisher publishes auth events on the mono event bus. A failed
// publish is logged and never fails the operation that produced it.
type busPublisher struct {
	bus mono.EventBus
}

func (p *busPublisher) UserRegistered(event events.UserRegisteredEvent) {
	if err := events.UserRegisteredV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[auth] Warning: failed to publish UserRegistered event: %v", err)
	}
}

func (p *busPublisher) PasswordResetRequested(event events.PasswordResetRequestedEvent) {
	if err := events.PasswordResetRequestedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[auth] Warning: failed to publish PasswordResetRequested event: %v", err)
	}
}

func (p *busPublisher) PasswordChanged(event events.PasswordChangedEvent) {
	if err := events.PasswordChangedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[auth] Warning: failed to publish PasswordChanged event: %v", err)
	}
}

func (p *busPublisher) InviteCreated(event events.InviteCreatedEvent) {
	if err := events.InviteCreatedV1.Publish(p.bus, event, nil); err != nil {
		log.Printf("[auth] Warning: failed to publish InviteCreated event: %v", err)
	}
}
