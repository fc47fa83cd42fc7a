package orchestrator

import (
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nghyane/llm-gw/internal/apierr"
	"github.com/nghyane/llm-gw/internal/imagegen"
	"github.com/nghyane/llm-gw/internal/ir"
	"github.com/nghyane/llm-gw/internal/logging"
	"github.com/nghyane/llm-gw/internal/mapper/gemini"
	"github.com/nghyane/llm-gw/internal/pool"
)

// imageTaskResult is what one concurrent per-image task produced.
type imageTaskResult struct {
	images  []imagegen.ImageData
	account *pool.Account
	apiErr  *apierr.Error
}

// runImageTasks fans n independent image-gen attempts out concurrently,
// each going through the same pick/translate/call/retry loop as any other
// route ("spawn a concurrent task that acquires a token..."),
// grounded on
// original_source/.../handlers/openai.rs's tokio::spawn-per-image fan-out,
// adapted here to golang.org/x/sync/errgroup.
func (e *Engine) runImageTasks(c *gin.Context, n int, physicalModel, responseFormat string, translate translateFunc) []imageTaskResult {
	results := make([]imageTaskResult, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			sid := ""
			result, apiErr := e.run(c.Request.Context(), protocolOpenAI, sid, physicalModel, physicalModel, translate, false)
			if apiErr != nil {
				results[i] = imageTaskResult{apiErr: apiErr}
				return nil
			}
			// run already released this account's lease on the non-stream
			// 2xx path before returning.
			results[i] = imageTaskResult{
				images:  imagegen.ExtractImages(result.reply, responseFormat),
				account: result.account,
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// collectImageResults merges per-task results into the final image set and
// account-email header, and decides the partial-vs-total-failure status
// ("429 surfaces as 429, 503 as 503, anything else as 502, only if
// all tasks failed").
func collectImageResults(results []imageTaskResult) (images []imagegen.ImageData, email string, failErr *apierr.Error) {
	var once sync.Once
	var lastErr *apierr.Error
	for _, r := range results {
		if r.apiErr != nil {
			lastErr = r.apiErr
			continue
		}
		once.Do(func() { email = r.account.Email })
		images = append(images, r.images...)
	}
	if len(images) > 0 {
		return images, email, nil
	}
	if lastErr == nil {
		return nil, "", apierr.New(apierr.Fatal, "no images generated")
	}
	switch lastErr.Status {
	case 429, 503:
		return nil, "", lastErr
	default:
		return nil, "", apierr.Wrap(apierr.Fatal, lastErr.Message, lastErr).WithStatus(502)
	}
}

// ImageGenerations handles POST /v1/images/generations.
func (e *Engine) ImageGenerations(c *gin.Context) {
	var req imagegen.GenerationRequest
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "failed to read request body", err))
		return
	}
	if err := jsonUnmarshal(raw, &req); err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "invalid JSON body", err))
		return
	}
	if req.Prompt == "" {
		writeOpenAIError(c, apierr.New(apierr.ClientShape, "missing 'prompt' field"))
		return
	}
	req.Normalize()

	reqLog := logging.NewRequestLog(logging.ProtocolOpenAI, c.Request.Method, c.Request.URL.String(), c.ClientIP(), req.Model)
	reqLog.InputTokens = logging.EstimateTokens(req.Prompt)
	start := time.Now()
	e.Log.Start(reqLog)
	defer func() {
		reqLog.Duration = time.Since(start)
		e.Log.End(reqLog)
	}()

	physicalModel := e.Registry.ResolvePhysicalModel(req.Model)
	reqLog.PhysicalModel = physicalModel

	translate := func(physical, sid string) (*ir.RequestEnvelope, error) {
		inner := imagegen.BuildGenerationInner(&req, physical)
		return gemini.Wrap(inner, "", physical, sid, gemini.EntryImage)
	}

	results := e.runImageTasks(c, req.N, physicalModel, req.ResponseFormat, translate)
	images, email, failErr := collectImageResults(results)
	if failErr != nil {
		reqLog.Status = failErr.Status
		reqLog.Error = failErr.Message
		writeOpenAIError(c, failErr)
		return
	}
	reqLog.Status = 200
	reqLog.AccountEmail = email

	c.Header("X-Account-Email", email)
	c.Header("X-Mapped-Model", physicalModel)
	c.JSON(200, imagegen.GenerationResponse{Created: time.Now().Unix(), Data: images})
}

// ImageEdits handles POST /v1/images/edits.
func (e *Engine) ImageEdits(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, "invalid multipart form", err))
		return
	}
	req, err := imagegen.ParseEditForm(form)
	if err != nil {
		writeOpenAIError(c, apierr.Wrap(apierr.ClientShape, err.Error(), err))
		return
	}
	req.Normalize()

	reqLog := logging.NewRequestLog(logging.ProtocolOpenAI, c.Request.Method, c.Request.URL.String(), c.ClientIP(), req.Model)
	reqLog.InputTokens = logging.EstimateTokens(req.Prompt)
	start := time.Now()
	e.Log.Start(reqLog)
	defer func() {
		reqLog.Duration = time.Since(start)
		e.Log.End(reqLog)
	}()

	physicalModel := e.Registry.ResolvePhysicalModel(req.Model)
	reqLog.PhysicalModel = physicalModel

	translate := func(physical, sid string) (*ir.RequestEnvelope, error) {
		inner := imagegen.BuildEditInner(req, physical)
		return gemini.Wrap(inner, "", physical, sid, gemini.EntryImage)
	}

	results := e.runImageTasks(c, req.N, physicalModel, req.ResponseFormat, translate)
	images, email, failErr := collectImageResults(results)
	if failErr != nil {
		reqLog.Status = failErr.Status
		reqLog.Error = failErr.Message
		writeOpenAIError(c, failErr)
		return
	}
	reqLog.Status = 200
	reqLog.AccountEmail = email

	c.Header("X-Account-Email", email)
	c.Header("X-Mapped-Model", physicalModel)
	c.JSON(200, imagegen.GenerationResponse{Created: time.Now().Unix(), Data: images})
}
