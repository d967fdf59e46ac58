package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/studentdb/internal/config"
)

// Open builds both namespaces on the backend chosen in cfg. The returned
// close function releases the backend connection, if any.
func Open(ctx context.Context, cfg config.Accounts, log *slog.Logger) (Roles, func() error, error) {
	switch cfg.Backend {
	case config.AccountsFile:
		return Roles{
			Admin: New(Admin, NewFileDocument(cfg.Dir, Admin), log),
			User:  New(User, NewFileDocument(cfg.Dir, User), log),
		}, func() error { return nil }, nil

	case config.AccountsRedis:
		client, err := NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return Roles{}, nil, err
		}
		return Roles{
			Admin: New(Admin, NewRedisDocument(client, Admin), log),
			User:  New(User, NewRedisDocument(client, User), log),
		}, client.Close, nil

	default:
		return Roles{}, nil, fmt.Errorf("accounts.Open: unknown backend %q", cfg.Backend)
	}
}
