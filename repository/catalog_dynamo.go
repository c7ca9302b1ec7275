package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/models"
)

// NewDynamoClient loads AWS config and returns a DynamoDB client.
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// DynamoCatalogRepository implements CatalogRepository on DynamoDB. The
// version match and the stock guard ride on a single ConditionExpression, so
// the check-then-set is one conditional write.
type DynamoCatalogRepository struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoCatalogRepository(client *dynamodb.Client, table string) *DynamoCatalogRepository {
	return &DynamoCatalogRepository{client: client, table: table}
}

type ddbProduct struct {
	ProductID  string `dynamodbav:"product_id"`
	Name       string `dynamodbav:"name"`
	PriceCents int64  `dynamodbav:"price_cents"`
	Stock      int    `dynamodbav:"stock"`
	Version    int64  `dynamodbav:"version"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func (d ddbProduct) toModel() (*models.Product, error) {
	id, err := uuid.Parse(d.ProductID)
	if err != nil {
		return nil, fmt.Errorf("parse product id: %w", err)
	}
	p := &models.Product{
		ID:         id,
		Name:       d.Name,
		PriceCents: d.PriceCents,
		Stock:      d.Stock,
		Version:    d.Version,
	}
	if t, err := time.Parse(time.RFC3339, d.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}

func (r *DynamoCatalogRepository) keyFor(productID uuid.UUID) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": productID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (r *DynamoCatalogRepository) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	key, err := r.keyFor(productID)
	if err != nil {
		return nil, err
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.table,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return dp.toModel()
}

func (r *DynamoCatalogRepository) List(ctx context.Context) ([]models.Product, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: &r.table})
	if err != nil {
		return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
	}

	products := make([]models.Product, 0, len(out.Items))
	for _, item := range out.Items {
		var dp ddbProduct
		if err := attributevalue.UnmarshalMap(item, &dp); err != nil {
			return nil, fmt.Errorf("unmarshal item: %w", err)
		}
		p, err := dp.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

func (r *DynamoCatalogRepository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, expectedVersion int64) (int64, error) {
	key, err := r.keyFor(productID)
	if err != nil {
		return 0, err
	}

	expr := "SET #stock = #stock + :delta, #ver = #ver + :one, updated_at = :now"
	condExpr := "#ver = :expected"
	exprVals := map[string]types.AttributeValue{}

	deltaAV, _ := attributevalue.Marshal(delta)
	oneAV, _ := attributevalue.Marshal(1)
	expectedAV, _ := attributevalue.Marshal(expectedVersion)
	nowAV, _ := attributevalue.Marshal(time.Now().UTC().Format(time.RFC3339))
	exprVals[":delta"] = deltaAV
	exprVals[":one"] = oneAV
	exprVals[":expected"] = expectedAV
	exprVals[":now"] = nowAV

	if delta < 0 {
		condExpr = "#ver = :expected AND #stock >= :need"
		needAV, _ := attributevalue.Marshal(-delta)
		exprVals[":need"] = needAV
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &r.table,
		Key:                 key,
		UpdateExpression:    &expr,
		ConditionExpression: &condExpr,
		ExpressionAttributeValues: exprVals,
		ExpressionAttributeNames: map[string]string{
			"#stock": "stock",
			"#ver":   "version",
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return 0, r.classifyConditionFailure(ctx, productID, expectedVersion)
		}
		return 0, fmt.Errorf("adjust stock failed: %w", err)
	}
	return expectedVersion + 1, nil
}

// classifyConditionFailure reads the row to tell a stale version apart from
// an exhausted stock count.
func (r *DynamoCatalogRepository) classifyConditionFailure(ctx context.Context, productID uuid.UUID, expectedVersion int64) error {
	product, err := r.Get(ctx, productID)
	if err != nil {
		return err
	}
	if product.Version != expectedVersion {
		return ErrVersionConflict
	}
	return ErrStockExhausted
}

func (r *DynamoCatalogRepository) Save(ctx context.Context, product *models.Product) error {
	dp := ddbProduct{
		ProductID:  product.ID.String(),
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Stock:      product.Stock,
		Version:    product.Version,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(dp)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}
