package mast

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/table"
)

// Products lists the data products of one observation, identified by the
// obsid column of an observation table.
func (c *Client) Products(ctx context.Context, obsid string, opts ...QueryOption) (*table.Table, error) {
	if strings.TrimSpace(obsid) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "observation id is empty")
	}
	o := applyQueryOptions(opts)
	return c.query(ctx, "Mast.Caom.Products", map[string]any{"obsid": obsid}, o, "products")
}

// DownloadProduct saves the product behind dataURI to dest, creating parent
// directories as needed. Returns the number of bytes written.
func (c *Client) DownloadProduct(ctx context.Context, dataURI, dest string) (int64, error) {
	fetchURL, err := c.resolveURI(dataURI)
	if err != nil {
		return 0, err
	}
	if err := errors.ValidateOutputPath(dest); err != nil {
		return 0, err
	}
	return c.vo.Download(ctx, fetchURL, dest)
}

// ProductTable fetches a FITS table product and parses it in memory.
// Products without a table extension, such as images, fail with a
// ParseError.
func (c *Client) ProductTable(ctx context.Context, dataURI string) (*table.Table, error) {
	fetchURL, err := c.resolveURI(dataURI)
	if err != nil {
		return nil, err
	}
	data, err := c.vo.GetBytes(ctx, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	return table.ReadFITS(bytes.NewReader(data), "")
}

// resolveURI maps a product's dataURI to a fetchable URL. Product listings
// use archive URIs like "mast:HST/product/x_drz.fits", served through the
// portal's file endpoint; plain http(s) URIs pass through.
func (c *Client) resolveURI(dataURI string) (string, error) {
	if strings.HasPrefix(dataURI, "http://") || strings.HasPrefix(dataURI, "https://") {
		return dataURI, nil
	}
	if strings.Contains(dataURI, ":") {
		return c.baseURL + "/api/v0.1/Download/file?uri=" + url.QueryEscape(dataURI), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "data URI %q has no scheme", dataURI)
}
