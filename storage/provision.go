package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/fileerror"
)

// Provision creates every fixed table, container, queue and share the
// gateway operates on, tolerating resources that already exist. It runs
// once before the first request so the hot paths carry no existence
// checks.
func (g *Gateway) Provision(ctx context.Context) error {
	if err := g.provisionTables(ctx); err != nil {
		return err
	}
	if err := g.provisionContainers(ctx); err != nil {
		return err
	}
	if err := g.provisionQueues(ctx); err != nil {
		return err
	}
	return g.provisionShares(ctx)
}

func (g *Gateway) provisionTables(ctx context.Context) error {
	for kind, t := range g.tables {
		if _, err := t.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return fmt.Errorf("create table for %s: %w", kind, err)
			}
		}
	}
	return nil
}

func (g *Gateway) provisionContainers(ctx context.Context) error {
	for _, name := range []string{ContainerProductImages, ContainerPaymentProofs} {
		if _, err := g.blob.CreateContainer(ctx, name, nil); err != nil {
			if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
				return fmt.Errorf("create container %s: %w", name, err)
			}
		}
	}
	return nil
}

func (g *Gateway) provisionQueues(ctx context.Context) error {
	for name, q := range g.queues {
		if _, err := q.Create(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
				return fmt.Errorf("create queue %s: %w", name, err)
			}
		}
	}
	return nil
}

func (g *Gateway) provisionShares(ctx context.Context) error {
	for name, sh := range g.shares {
		if _, err := sh.Create(ctx, nil); err != nil {
			if !fileerror.HasCode(err, fileerror.ShareAlreadyExists) {
				return fmt.Errorf("create share %s: %w", name, err)
			}
		}
	}
	return nil
}
