package players

import (
	"time"

	"github.com/google/uuid"
	"github.com/woozymasta/nadir/internal/activity"
	"github.com/woozymasta/nadir/internal/models"
	"github.com/woozymasta/nadir/internal/sessions"
)

// PlayedBetween matches players with a session starting or ending inside [after, before].
func PlayedBetween(after, before time.Time) Predicate {
	return func(player models.PlayerRecord) bool {
		return sessions.Of(player).PlayedBetween(after, before)
	}
}

// RegisteredBetween matches players registered inside [after, before].
func RegisteredBetween(after, before time.Time) Predicate {
	return func(player models.PlayerRecord) bool {
		return !player.Registered.Before(after) && !player.Registered.After(before)
	}
}

// Retained matches players who played in both halves of [max(after, registered), before].
func Retained(after, before time.Time) Predicate {
	return func(player models.PlayerRecord) bool {
		backLimit := after
		if player.Registered.After(backLimit) {
			backLimit = player.Registered
		}
		half := backLimit.Add(before.Sub(backLimit) / 2)

		list := sessions.Of(player)
		return list.PlayedBetween(backLimit, half) && list.PlayedBetween(half, before)
	}
}

// ActiveAt matches players whose activity index at date is at least limit.
func ActiveAt(date time.Time, threshold time.Duration, limit float64) Predicate {
	return func(player models.PlayerRecord) bool {
		return activity.Compute(player, date, threshold).Value >= limit
	}
}

// PlayedOnServer matches players with at least one session on the server.
func PlayedOnServer(serverUUID uuid.UUID) Predicate {
	return func(player models.PlayerRecord) bool {
		return sessions.Of(player).OnServer(serverUUID).Count() > 0
	}
}
