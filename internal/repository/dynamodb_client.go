package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chatbot-dashboard/internal/domain"
)

const (
	skPrefixBot  = "BOT#"
	skPrefixPref = "PREF#"

	// maxQueryPages bounds ListBots against runaway pagination.
	maxQueryPages = 20
)

// ErrNotFound is returned when a conditional write targets a missing item.
var ErrNotFound = errors.New("repository: item not found")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table holding tenant bots and operator preferences.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func tenantPK(tenantID string) string {
	return "TENANT#" + tenantID
}

func botSK(botID string) string {
	return skPrefixBot + botID
}

func operatorPK(operatorID string) string {
	return "OPERATOR#" + operatorID
}

func prefSK(key string) string {
	return skPrefixPref + key
}

// ListBots returns every bot of a tenant ordered by name.
func (c *Client) ListBots(ctx context.Context, tenantID string) ([]domain.Bot, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: tenantPK(tenantID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixBot},
		},
	}

	var bots []domain.Bot
	complete := false
	for page := 0; page < maxQueryPages && !complete; page++ {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: ListBots query: %w", err)
		}
		for _, item := range out.Items {
			bot, err := itemToBot(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListBots unmarshal: %w", err)
			}
			bots = append(bots, bot)
		}
		complete = len(out.LastEvaluatedKey) == 0
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if !complete {
		return nil, fmt.Errorf("repository: ListBots: result exceeds %d pages", maxQueryPages)
	}

	sort.SliceStable(bots, func(i, j int) bool {
		return strings.ToLower(bots[i].Name) < strings.ToLower(bots[j].Name)
	})
	return bots, nil
}

// GetBot loads a single bot. The boolean is false when the bot does not exist.
func (c *Client) GetBot(ctx context.Context, tenantID, botID string) (domain.Bot, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantPK(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: botSK(botID)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Bot{}, false, fmt.Errorf("repository: GetBot get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Bot{}, false, nil
	}
	bot, err := itemToBot(out.Item)
	if err != nil {
		return domain.Bot{}, false, fmt.Errorf("repository: GetBot unmarshal: %w", err)
	}
	return bot, true, nil
}

// CreateBot persists a new bot, refusing to overwrite an existing one.
func (c *Client) CreateBot(ctx context.Context, bot domain.Bot) error {
	if bot.TenantID == "" || bot.ID == "" {
		return errors.New("repository: CreateBot: tenant and bot id are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                botItem(bot),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: CreateBot: %w", err)
	}
	return nil
}

// UpdateBot replaces an existing bot. Returns ErrNotFound when it is absent.
func (c *Client) UpdateBot(ctx context.Context, bot domain.Bot) error {
	if bot.TenantID == "" || bot.ID == "" {
		return errors.New("repository: UpdateBot: tenant and bot id are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                botItem(bot),
		ConditionExpression: aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("repository: UpdateBot: %w", err)
	}
	return nil
}

// DeleteBot removes a bot. Deleting a missing bot is not an error.
func (c *Client) DeleteBot(ctx context.Context, tenantID, botID string) error {
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantPK(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: botSK(botID)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: DeleteBot: %w", err)
	}
	return nil
}

// GetPreference reads an operator preference value.
func (c *Client) GetPreference(ctx context.Context, operatorID, key string) (string, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: operatorPK(operatorID)},
			"SK": &types.AttributeValueMemberS{Value: prefSK(key)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("repository: GetPreference get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", false, nil
	}
	v, err := strAttr(out.Item, "value")
	if err != nil {
		return "", false, fmt.Errorf("repository: GetPreference decode value: %w", err)
	}
	return v, true, nil
}

// PutPreference writes or replaces an operator preference value.
func (c *Client) PutPreference(ctx context.Context, operatorID, key, value string) error {
	if operatorID == "" || key == "" {
		return errors.New("repository: PutPreference: operator and key are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":    &types.AttributeValueMemberS{Value: operatorPK(operatorID)},
			"SK":    &types.AttributeValueMemberS{Value: prefSK(key)},
			"value": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: PutPreference: %w", err)
	}
	return nil
}

// Preferences scopes preference reads and writes to one operator.
type Preferences struct {
	client     *Client
	operatorID string
}

// PreferencesFor returns the preference store of a single operator.
func (c *Client) PreferencesFor(operatorID string) *Preferences {
	return &Preferences{client: c, operatorID: operatorID}
}

func (p *Preferences) Get(ctx context.Context, key string) (string, bool, error) {
	return p.client.GetPreference(ctx, p.operatorID, key)
}

func (p *Preferences) Put(ctx context.Context, key, value string) error {
	return p.client.PutPreference(ctx, p.operatorID, key, value)
}

// itemToBot converts a DynamoDB attribute map to a Bot.
func itemToBot(item map[string]types.AttributeValue) (domain.Bot, error) {
	id, err := strAttr(item, "botId")
	if err != nil {
		return domain.Bot{}, err
	}
	tenantID, err := strAttr(item, "tenantId")
	if err != nil {
		return domain.Bot{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.Bot{}, err
	}
	description, _ := strAttr(item, "description") // allow empty
	createdAt, _ := strAttr(item, "createdAt")
	updatedAt, _ := strAttr(item, "updatedAt")

	return domain.Bot{
		ID:          id,
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func botItem(bot domain.Bot) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: tenantPK(bot.TenantID)},
		"SK":          &types.AttributeValueMemberS{Value: botSK(bot.ID)},
		"botId":       &types.AttributeValueMemberS{Value: bot.ID},
		"tenantId":    &types.AttributeValueMemberS{Value: bot.TenantID},
		"name":        &types.AttributeValueMemberS{Value: bot.Name},
		"description": &types.AttributeValueMemberS{Value: bot.Description},
		"createdAt":   &types.AttributeValueMemberS{Value: bot.CreatedAt},
		"updatedAt":   &types.AttributeValueMemberS{Value: bot.UpdatedAt},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
