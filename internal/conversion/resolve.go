package conversion

import (
	"context"
	"fmt"

	"github.com/emiliopalmerini/onboardtrack/internal/domain"
	"github.com/emiliopalmerini/onboardtrack/internal/logging"
	"github.com/emiliopalmerini/onboardtrack/internal/util"
)

const lookupChunk = 500

// devicesOf loads devices for the given datastore users, chunked.
func (s *Service) devicesOf(ctx context.Context, users []domain.User) (map[string][]domain.Device, error) {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	out := make(map[string][]domain.Device)
	for _, chunk := range util.Chunk(ids, lookupChunk) {
		devices, err := s.engagement.ListDevices(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch devices: %w", err)
		}
		for k, v := range devices {
			out[k] = v
		}
	}
	return out, nil
}

// signupOS resolves the OS of each identity user: the first known datastore
// device, else the first classifiable device credential. Users missing from
// the datastore stay Unknown.
func (s *Service) signupOS(ctx context.Context, auth0IDs []string) (map[string]string, error) {
	var users []domain.User
	for _, chunk := range util.Chunk(auth0IDs, lookupChunk) {
		found, err := s.users.FindByAuth0IDs(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to find signups: %w", err)
		}
		users = append(users, found...)
	}
	devices, err := s.devicesOf(ctx, users)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(auth0IDs))
	for _, id := range auth0IDs {
		result[id] = domain.OSUnknown
	}

	var fallback int
	for _, u := range users {
		if os := domain.PrimaryOS(devices[u.ID]); os != domain.OSUnknown {
			result[u.Auth0ID] = os
			continue
		}
		fallback++
		oses, err := s.identity.DeviceOS(ctx, u.Auth0ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn().Err(err).Str("auth0_id", u.Auth0ID).Msg("device credential lookup failed")
			continue
		}
		for _, os := range oses {
			if domain.IsKnownOS(os) {
				result[u.Auth0ID] = os
				break
			}
		}
	}

	logging.Info().Int("signups", len(auth0IDs)).Int("in_datastore", len(users)).
		Int("credential_lookups", fallback).Msg("resolved signup operating systems")
	return result, nil
}

// subscriberOS maps Stripe customers to datastore users and their OS.
func (s *Service) subscriberOS(ctx context.Context, customerIDs []string) (map[string]domain.User, map[string]string, error) {
	var users []domain.User
	for _, chunk := range util.Chunk(customerIDs, lookupChunk) {
		found, err := s.users.FindByStripeCustomerIDs(ctx, chunk)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find subscribers: %w", err)
		}
		users = append(users, found...)
	}
	devices, err := s.devicesOf(ctx, users)
	if err != nil {
		return nil, nil, err
	}

	byCustomer := make(map[string]domain.User, len(users))
	oses := make(map[string]string, len(users))
	for _, u := range users {
		byCustomer[u.StripeCustomerID] = u
		oses[u.StripeCustomerID] = domain.PrimaryOS(devices[u.ID])
	}
	return byCustomer, oses, nil
}
