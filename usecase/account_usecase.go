package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"crosspost/domain/dto"
	"crosspost/domain/model"
	"crosspost/domain/repository"
	"crosspost/infrastructure/logger"
)

const connectStateTTL = 10 * time.Minute

type IAccountUsecase interface {
	BeginConnect(ctx context.Context, userID string, provider model.Provider) (*dto.ConnectResponse, error)
	// CompleteConnect consumes the state, exchanges the code and stores every account it unlocks
	CompleteConnect(ctx context.Context, provider model.Provider, state, code string) (*dto.ConnectResult, error)
	List(ctx context.Context, userID string) ([]dto.AccountView, error)
	SetDefault(ctx context.Context, userID string, accountID int64) error
	Disconnect(ctx context.Context, userID string, accountID int64) error
}

// Connectors holds the OAuth flow per provider family; Meta serves Facebook and Instagram
type Connectors struct {
	YouTube repository.IAccountConnector
	TikTok  repository.IAccountConnector
	Meta    repository.IAccountConnector
}

func (c Connectors) forProvider(p model.Provider) (repository.IAccountConnector, error) {
	var conn repository.IAccountConnector
	switch p {
	case model.ProviderYouTube:
		conn = c.YouTube
	case model.ProviderTikTok:
		conn = c.TikTok
	case model.ProviderFacebook, model.ProviderInstagram:
		conn = c.Meta
	}
	if conn == nil {
		return nil, fmt.Errorf("connect %q: %w", p, model.ErrUnsupportedOperation)
	}
	return conn, nil
}

type accountUsecase struct {
	creds      repository.ICredential
	connectors Connectors
	states     repository.IConnectStateStore
	now        func() time.Time
}

func NewAccountUsecase(creds repository.ICredential, connectors Connectors, states repository.IConnectStateStore) IAccountUsecase {
	return &accountUsecase{creds: creds, connectors: connectors, states: states, now: time.Now}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (u *accountUsecase) BeginConnect(ctx context.Context, userID string, provider model.Provider) (*dto.ConnectResponse, error) {
	conn, err := u.connectors.forProvider(provider)
	if err != nil {
		return nil, err
	}
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	cs := model.ConnectState{UserID: userID, Provider: provider, CreatedAt: u.now().UTC()}
	if err := u.states.Put(ctx, state, cs, connectStateTTL); err != nil {
		return nil, fmt.Errorf("store connect state: %w", err)
	}
	return &dto.ConnectResponse{AuthURL: conn.AuthURL(state), State: state}, nil
}

func (u *accountUsecase) CompleteConnect(ctx context.Context, provider model.Provider, state, code string) (*dto.ConnectResult, error) {
	if state == "" || code == "" {
		return nil, fmt.Errorf("state and code required: %w", ErrInvalidInput)
	}
	cs, err := u.states.Take(ctx, state)
	if err != nil {
		return nil, err
	}
	// Facebook and Instagram share one callback
	if cs.Provider != provider && !(cs.Provider.IsMeta() && provider.IsMeta()) {
		return nil, fmt.Errorf("state issued for %s: %w", cs.Provider, model.ErrInvalidState)
	}
	conn, err := u.connectors.forProvider(cs.Provider)
	if err != nil {
		return nil, err
	}
	creds, err := conn.Connect(ctx, code)
	if err != nil {
		return nil, err
	}

	result := &dto.ConnectResult{Provider: cs.Provider, Accounts: make([]dto.AccountView, 0, len(creds))}
	for _, c := range creds {
		c.UserID = cs.UserID
		saved, err := u.creds.Upsert(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("save %s account %s: %w", c.Provider, c.ProviderID, err)
		}
		result.Accounts = append(result.Accounts, u.view(saved))
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"user_id":  cs.UserID,
		"provider": cs.Provider,
		"accounts": len(result.Accounts),
	}).Info("accounts connected")
	return result, nil
}

func (u *accountUsecase) List(ctx context.Context, userID string) ([]dto.AccountView, error) {
	creds, err := u.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]dto.AccountView, 0, len(creds))
	for _, c := range creds {
		views = append(views, u.view(c))
	}
	return views, nil
}

func (u *accountUsecase) SetDefault(ctx context.Context, userID string, accountID int64) error {
	cred, err := u.creds.GetByIDForUser(ctx, userID, accountID)
	if err != nil {
		return err
	}
	return u.creds.SetDefault(ctx, userID, cred.Provider, cred.ID)
}

func (u *accountUsecase) Disconnect(ctx context.Context, userID string, accountID int64) error {
	return u.creds.Delete(ctx, userID, accountID)
}

func (u *accountUsecase) view(c *model.Credential) dto.AccountView {
	return dto.AccountView{
		ID:         c.ID,
		Provider:   c.Provider,
		ProviderID: c.ProviderID,
		Name:       c.Name,
		AvatarURL:  c.AvatarURL,
		IsDefault:  c.IsDefault,
		ExpiresAt:  c.ExpiresAt,
		Expired:    c.Expired(u.now()),
	}
}
