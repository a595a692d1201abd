// Package labels coordinates the carrier client, the document store and
// the order store into the batch label pipeline: per-order label fetch,
// per-order document assembly, batch merge and artifact cleanup.
package labels

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moshipping/labelbridge/internal/docstore"
	"github.com/moshipping/labelbridge/internal/orderstore"
	"github.com/moshipping/labelbridge/internal/telemetry"
	"github.com/moshipping/labelbridge/pkg/carrier"
)

// LabelClient is the carrier-side dependency of the orchestrator.
type LabelClient interface {
	FetchLabel(ctx context.Context, awb string) (*carrier.LabelSet, error)
}

// Result is a successful batch outcome. Path is surfaced so the caller
// can delete the artifact later, once it has finished using it.
type Result struct {
	URL             string `json:"url"`
	Path            string `json:"path"`
	NoShipmentCount int    `json:"noShipmentCount,omitempty"`
}

// NotShippedError reports that every requested order lacked an AWB.
type NotShippedError struct {
	Orders int
}

func (e *NotShippedError) Error() string {
	if e.Orders == 1 {
		return "This order was not shipped by SMSA."
	}
	return "These orders were not shipped by SMSA."
}

// User-visible failure messages. These are deliberately short and never
// carry internal paths or stack traces.
var (
	ErrCheckCredentials = errors.New("Please check your SMSA account credentials.")
	ErrTryAgain         = errors.New("Please try again in a few minutes!")
	ErrNoOrders         = errors.New("No orders selected.")
)

// Orchestrator runs the batch label pipeline. Per-order fetch and
// assembly run on a bounded worker pool; the batch merge starts only
// after every per-order task has finished, so the combined document
// keeps the request order.
type Orchestrator struct {
	client      LabelClient
	docs        *docstore.Store
	orders      orderstore.Store
	logger      *otelzap.Logger
	metrics     *telemetry.Metrics
	concurrency int
}

// New creates an Orchestrator. concurrency bounds the per-order worker
// pool; values below 1 fall back to sequential processing.
func New(client LabelClient, docs *docstore.Store, orders orderstore.Store, logger *otelzap.Logger, metrics *telemetry.Metrics, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		client:      client,
		docs:        docs,
		orders:      orders,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

type contribution struct {
	path  string
	noAWB bool
}

// PrintAll fetches and assembles a label document for every order that
// has an AWB and merges the per-order documents into one combined
// artifact. A failing order contributes nothing but never aborts the
// batch. The per-order artifacts consumed by the batch merge are deleted
// before returning.
func (o *Orchestrator) PrintAll(ctx context.Context, orderRefs []string) (*Result, error) {
	started := time.Now()

	if len(orderRefs) == 0 {
		return nil, ErrNoOrders
	}

	contributions := make([]contribution, len(orderRefs))

	// Per-order failures are swallowed here so one bad order cannot
	// cancel its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, ref := range orderRefs {
		g.Go(func() error {
			awb, err := o.orders.GetAWB(gctx, ref)
			if err != nil {
				o.logger.Warn("AWB lookup failed", zap.String("order", ref), zap.Error(err))
				return nil
			}
			if awb == "" {
				contributions[i].noAWB = true
				return nil
			}

			path, err := o.assembleOrder(gctx, awb)
			if err != nil {
				o.metrics.RecordError(string(carrier.KindOf(err)))
				o.logger.Warn("Order contributes no label",
					zap.String("order", ref),
					zap.String("awb", awb),
					zap.Error(err),
				)
				return nil
			}
			contributions[i].path = path
			return nil
		})
	}
	g.Wait()

	paths := make([]string, 0, len(contributions))
	noShipment := 0
	for _, c := range contributions {
		if c.noAWB {
			noShipment++
			continue
		}
		if c.path != "" {
			paths = append(paths, c.path)
		}
	}

	if len(paths) == 0 {
		o.metrics.RecordRequest("print_all", "error", time.Since(started).Seconds())
		if noShipment == len(orderRefs) {
			return nil, &NotShippedError{Orders: len(orderRefs)}
		}
		return nil, ErrCheckCredentials
	}

	finalPath := paths[0]
	if len(paths) > 1 {
		finalPath = filepath.Join(o.docs.Dir(), o.docs.GenerateName("all", "pdf"))
		if err := o.docs.Merge(paths, finalPath); err != nil {
			o.logger.Error("Batch merge failed", zap.Int("inputs", len(paths)), zap.Error(err))
			o.docs.Cleanup(paths)
			o.metrics.RecordRequest("print_all", "error", time.Since(started).Seconds())
			return nil, ErrCheckCredentials
		}
		o.docs.Cleanup(paths)
	}

	url, err := o.docs.ResolveURL(finalPath)
	if err != nil {
		o.metrics.RecordRequest("print_all", "error", time.Since(started).Seconds())
		return nil, ErrCheckCredentials
	}

	o.logger.Info("Batch label ready",
		zap.Int("orders", len(orderRefs)),
		zap.Int("merged", len(paths)),
		zap.Int("no_shipment", noShipment),
	)
	o.metrics.RecordRequest("print_all", "ok", time.Since(started).Seconds())

	return &Result{URL: url, Path: finalPath, NoShipmentCount: noShipment}, nil
}

// GenerateLabel is the single-order variant of PrintAll. Every
// non-success path collapses into one generic retry message.
func (o *Orchestrator) GenerateLabel(ctx context.Context, orderRef string) (*Result, error) {
	started := time.Now()

	awb, err := o.orders.GetAWB(ctx, orderRef)
	if err != nil || awb == "" {
		o.metrics.RecordRequest("generate_label", "error", time.Since(started).Seconds())
		return nil, ErrTryAgain
	}

	path, err := o.assembleOrder(ctx, awb)
	if err != nil {
		o.metrics.RecordError(string(carrier.KindOf(err)))
		o.logger.Warn("Label generation failed", zap.String("awb", awb), zap.Error(err))
		o.metrics.RecordRequest("generate_label", "error", time.Since(started).Seconds())
		return nil, ErrTryAgain
	}

	url, err := o.docs.ResolveURL(path)
	if err != nil {
		o.metrics.RecordRequest("generate_label", "error", time.Since(started).Seconds())
		return nil, ErrTryAgain
	}

	o.metrics.RecordRequest("generate_label", "ok", time.Since(started).Seconds())
	return &Result{URL: url, Path: path}, nil
}

// DeleteArtifact removes a previously returned artifact. Invoked by the
// caller once it has finished with the document, independently of the
// batch that produced it. Deletion is best-effort and idempotent.
func (o *Orchestrator) DeleteArtifact(url, path string) {
	if path == "" {
		return
	}
	// Only paths inside the working directory are deletable.
	if _, err := o.docs.ResolveURL(path); err != nil {
		o.logger.Warn("Refusing to delete path outside working directory", zap.String("url", url))
		return
	}
	o.docs.Cleanup([]string{path})
}

// assembleOrder turns the label payload of one AWB into a single PDF
// artifact. A single-page payload is written directly under the AWB
// filename. A multi-piece payload is written page by page to indexed
// temp files, merged into the per-AWB artifact, and the temp files are
// deleted whether or not the merge succeeded.
func (o *Orchestrator) assembleOrder(ctx context.Context, awb string) (string, error) {
	set, err := o.client.FetchLabel(ctx, awb)
	if err != nil {
		return "", err
	}

	if len(set.Pages) == 0 {
		return "", carrier.NewError("labels", carrier.KindNotFound, "empty label payload for "+awb)
	}
	if len(set.Pages) == 1 {
		return o.docs.DecodeAndSave(set.Pages[0].Data, awb+".pdf")
	}

	temps := make([]string, 0, len(set.Pages))
	for _, page := range set.Pages {
		name := fmt.Sprintf("%d_%s.pdf", page.Index, page.AWB)
		path, err := o.docs.DecodeAndSave(page.Data, name)
		if err != nil {
			// A bad page excludes only itself.
			o.logger.Warn("Skipping undecodable label page",
				zap.String("awb", awb),
				zap.Int("page", page.Index),
				zap.Error(err),
			)
			continue
		}
		temps = append(temps, path)
	}

	if len(temps) == 0 {
		return "", carrier.NewError("labels", carrier.KindDecode, "no decodable pages for "+awb)
	}

	out := filepath.Join(o.docs.Dir(), docstore.SanitizeFileName(awb+".pdf"))
	mergeErr := o.docs.Merge(temps, out)
	o.docs.Cleanup(temps)
	if mergeErr != nil {
		return "", mergeErr
	}

	return out, nil
}
