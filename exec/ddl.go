package exec

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"

	"github.com/dqlang/dql/ast"
	"github.com/dqlang/dql/planner"
)

func scalarAttributeType(t ast.ScalarType) (types.ScalarAttributeType, error) {
	switch t {
	case ast.TypeString:
		return types.ScalarAttributeTypeS, nil
	case ast.TypeNumber:
		return types.ScalarAttributeTypeN, nil
	case ast.TypeBinary:
		return types.ScalarAttributeTypeB, nil
	default:
		return "", errors.Errorf("exec: %s cannot be a key attribute type", t)
	}
}

func throughputOf(t *ast.Throughput) *types.ProvisionedThroughput {
	if t == nil || t.PayPerRequest {
		return nil
	}
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(int64(t.Read)),
		WriteCapacityUnits: aws.Int64(int64(t.Write)),
	}
}

func billingModeOf(t *ast.Throughput) types.BillingMode {
	if t != nil && t.PayPerRequest {
		return types.BillingModePayPerRequest
	}
	return types.BillingModeProvisioned
}

// keySchemaFor builds a KeySchemaElement list out of the hash/range
// attribute names an index or table declares.
func keySchemaFor(hash, rng string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{{AttributeName: &hash, KeyType: types.KeyTypeHash}}
	if rng != "" {
		ks = append(ks, types.KeySchemaElement{AttributeName: &rng, KeyType: types.KeyTypeRange})
	}
	return ks
}

func projectionFor(cols []string) *types.Projection {
	if len(cols) == 0 {
		return &types.Projection{ProjectionType: types.ProjectionTypeAll}
	}
	return &types.Projection{ProjectionType: types.ProjectionTypeInclude, NonKeyAttributes: cols}
}

func (e *Executor) execCreateTable(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	stmt, ok := plan.DDL.(*ast.CreateTable)
	if !ok {
		return nil, errors.Errorf("exec: plan.DDL is %T, want *ast.CreateTable", plan.DDL)
	}

	input := &dynamodb.CreateTableInput{
		TableName:             &plan.Table,
		BillingMode:           billingModeOf(stmt.Throughput),
		ProvisionedThroughput: throughputOf(stmt.Throughput),
	}

	attrTypes := map[string]ast.ScalarType{}
	for _, attr := range stmt.Attrs {
		attrTypes[attr.Name] = attr.Type
		switch attr.KeyRole {
		case ast.RoleHash:
			input.KeySchema = append(input.KeySchema, types.KeySchemaElement{AttributeName: &attr.Name, KeyType: types.KeyTypeHash})
		case ast.RoleRange:
			input.KeySchema = append(input.KeySchema, types.KeySchemaElement{AttributeName: &attr.Name, KeyType: types.KeyTypeRange})
		}
	}

	needed := map[string]bool{}
	for _, ks := range input.KeySchema {
		needed[*ks.AttributeName] = true
	}
	for _, idx := range stmt.Indexes {
		needed[idx.HashAttr] = true
		if idx.RangeAttr != "" {
			needed[idx.RangeAttr] = true
		}
	}
	for name := range needed {
		scalarType, err := scalarAttributeType(attrTypes[name])
		if err != nil {
			return nil, err
		}
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: scalarType,
		})
	}

	for _, idx := range stmt.Indexes {
		switch idx.Kind {
		case ast.IndexLocal:
			input.LocalSecondaryIndexes = append(input.LocalSecondaryIndexes, types.LocalSecondaryIndex{
				IndexName:  aws.String(idx.Name),
				KeySchema:  keySchemaFor(idx.HashAttr, idx.RangeAttr),
				Projection: projectionFor(idx.Projection),
			})
		default:
			input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
				IndexName:             aws.String(idx.Name),
				KeySchema:             keySchemaFor(idx.HashAttr, idx.RangeAttr),
				Projection:            projectionFor(idx.Projection),
				ProvisionedThroughput: throughputOf(idx.Throughput),
			})
		}
	}

	result := &Result{}
	err := e.withRetry(ctx, "CreateTable", result, func() error {
		_, callErr := e.client.CreateTable(ctx, input)
		if stmt.IfNotExists {
			var exists *types.ResourceInUseException
			if errors.As(callErr, &exists) {
				return nil
			}
		}
		return callErr
	})
	return result, err
}

func (e *Executor) execUpdateTable(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	stmt, ok := plan.DDL.(*ast.AlterTable)
	if !ok {
		return nil, errors.Errorf("exec: plan.DDL is %T, want *ast.AlterTable", plan.DDL)
	}

	input := &dynamodb.UpdateTableInput{TableName: &plan.Table}
	switch stmt.Kind {
	case ast.AlterSetThroughput:
		input.BillingMode = billingModeOf(stmt.Throughput)
		input.ProvisionedThroughput = throughputOf(stmt.Throughput)
	case ast.AlterSetIndexThroughput:
		input.GlobalSecondaryIndexUpdates = []types.GlobalSecondaryIndexUpdate{{
			Update: &types.UpdateGlobalSecondaryIndexAction{
				IndexName:             &stmt.IndexName,
				ProvisionedThroughput: throughputOf(stmt.Throughput),
			},
		}}
	case ast.AlterDropIndex:
		input.GlobalSecondaryIndexUpdates = []types.GlobalSecondaryIndexUpdate{{
			Delete: &types.DeleteGlobalSecondaryIndexAction{IndexName: &stmt.IndexName},
		}}
	case ast.AlterCreateIndex:
		// The new index's hash/range attributes are assumed already defined
		// on the table (from its CREATE TABLE); DynamoDB only requires
		// AttributeDefinitions here for attributes this request introduces.
		idx := stmt.NewIndex
		input.GlobalSecondaryIndexUpdates = []types.GlobalSecondaryIndexUpdate{{
			Create: &types.CreateGlobalSecondaryIndexAction{
				IndexName:             aws.String(idx.Name),
				KeySchema:             keySchemaFor(idx.HashAttr, idx.RangeAttr),
				Projection:            projectionFor(idx.Projection),
				ProvisionedThroughput: throughputOf(idx.Throughput),
			},
		}}
	default:
		return nil, errors.Errorf("exec: unhandled AlterKind %v", stmt.Kind)
	}

	result := &Result{}
	err := e.withRetry(ctx, "UpdateTable", result, func() error {
		_, callErr := e.client.UpdateTable(ctx, input)
		return callErr
	})
	return result, err
}

func (e *Executor) execDeleteTable(ctx context.Context, plan *planner.ExecutionPlan) (*Result, error) {
	stmt, ok := plan.DDL.(*ast.DropTable)
	if !ok {
		return nil, errors.Errorf("exec: plan.DDL is %T, want *ast.DropTable", plan.DDL)
	}

	input := &dynamodb.DeleteTableInput{TableName: &plan.Table}
	result := &Result{}
	err := e.withRetry(ctx, "DeleteTable", result, func() error {
		_, callErr := e.client.DeleteTable(ctx, input)
		if stmt.IfExists {
			var notFound *types.ResourceNotFoundException
			if errors.As(callErr, &notFound) {
				return nil
			}
		}
		return callErr
	})
	return result, err
}
