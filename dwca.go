package bioportal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Archive file name layouts.
const (
	dwcaQueryLayout   = "20060102-1504"
	dwcaDataSetLayout = "20060102"
	dwcaExt           = ".dwca.zip"
)

// DwCAQuery exports the documents matched by the attached spec as a Darwin
// Core Archive and returns the path of the written file. It needs a single
// selected service that supports DwCA and a configured download directory.
func (c *Client) DwCAQuery(ctx context.Context) (path string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("dwcaQuery", start, err) }()

	svc, err := c.requireDwCA("dwcaQuery")
	if err != nil {
		return "", err
	}
	spec, err := c.requireSpec("dwcaQuery")
	if err != nil {
		return "", err
	}
	if spec.UsesExtendedCriteria() {
		return "", domain.Statef("dwcaQuery: spec uses groupByScientificName criteria")
	}
	qs, err := spec.Serialize(true)
	if err != nil {
		return "", fmt.Errorf("dwcaQuery: serialize spec: %w", err)
	}

	src := c.cfg.BaseURL + string(svc) + "/dwca/query/?" + querySpecParam + "=" + qs
	name := string(svc) + "-" + c.now().Format(dwcaQueryLayout) + dwcaExt
	return c.download(ctx, svc, src, name)
}

// DwCADataSet downloads a predefined data set as a Darwin Core Archive and
// returns the path of the written file. The name must be one of
// DwCADataSetNames.
func (c *Client) DwCADataSet(ctx context.Context, name string) (path string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("dwcaGetDataSet", start, err) }()

	svc, err := c.requireDwCA("dwcaGetDataSet")
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Validationf("dwcaGetDataSet: no data set given")
	}
	names, err := c.DwCADataSetNames(ctx)
	if err != nil {
		return "", err
	}
	if !slices.Contains(names, name) {
		return "", domain.Validationf("dwcaGetDataSet: data set %q not available for service %q", name, svc)
	}

	src := c.cfg.BaseURL + string(svc) + "/dwca/getDataSet/" + url.PathEscape(name)
	file := name + "-" + c.now().Format(dwcaDataSetLayout) + dwcaExt
	return c.download(ctx, svc, src, file)
}

// DwCADataSetNames lists the predefined data sets of the single selected
// service.
func (c *Client) DwCADataSetNames(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("dwcaGetDataSetNames", start, err) }()

	svc, err := c.requireSingle("dwcaGetDataSetNames")
	if err != nil {
		return nil, err
	}
	if !svc.SupportsDwCA() {
		return nil, domain.Statef("dwcaGetDataSetNames: service %q has no DwCA export", svc)
	}
	body, err := c.fetch(ctx, "dwcaGetDataSetNames", svc, string(svc)+"/dwca/getDataSetNames")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("dwcaGetDataSetNames: decode: %w", err)
	}
	return names, nil
}

func (c *Client) requireDwCA(op string) (Service, error) {
	svc, err := c.requireSingle(op)
	if err != nil {
		return "", err
	}
	if !svc.SupportsDwCA() {
		return "", domain.Statef("%s: service %q has no DwCA export", op, svc)
	}
	if c.cfg.DownloadDir == "" {
		return "", domain.Statef("%s: no download directory configured", op)
	}
	return svc, nil
}

// download streams src into the download directory. The channel is recorded
// so QueryURL reports the archive URL.
func (c *Client) download(ctx context.Context, svc Service, src, file string) (string, error) {
	c.channels = []dispatch.Channel{{Label: string(svc), Service: string(svc), URL: src}}
	c.last = nil

	dest := filepath.Join(c.cfg.DownloadDir, file)
	n, err := c.downloader.Download(ctx, src, dest)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", file, err)
	}
	c.logger.Info("dwca archive written",
		zap.String("service", string(svc)),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}
