// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 reads datasets stored as JSON lines objects in an S3 bucket,
// one key prefix per dataset.
package s3

import (
	"context"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/opentargets/otgraph"
	"github.com/opentargets/otgraph/json"
	"github.com/pkg/errors"
)

// NewClient returns an S3 client for region using the default credential
// chain.
func NewClient(region string) (s3iface.S3API, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region)},
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	return s3.New(sess), nil
}

// RawSource is an otgraph.RawSource handing out the objects under a prefix
// in key order. Keys whose base name starts with "." or "_" are skipped, as
// are directory markers.
type RawSource struct {
	bucket string
	prefix string

	ctx     context.Context
	s3      s3iface.S3API
	objects []*s3.Object
	objIdx  *uint64
}

// NewRawSource lists every object of bucket under prefix.
func NewRawSource(ctx context.Context, client s3iface.S3API, bucket, prefix string) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		bucket: bucket,
		prefix: prefix,
		ctx:    ctx,
		s3:     client,
		objIdx: &idx,
	}
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket), Prefix: aws.String(prefix)}
	err := client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			if obj.Key != nil && dataObject(*obj.Key) {
				rs.objects = append(rs.objects, obj)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing objects of %s under %s", bucket, prefix)
	}
	return rs, nil
}

func dataObject(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	base := path.Base(key)
	return !strings.HasPrefix(base, ".") && !strings.HasPrefix(base, "_")
}

// Keys returns the keys of the objects the source will read.
func (rs *RawSource) Keys() []string {
	keys := make([]string, len(rs.objects))
	for i, obj := range rs.objects {
		keys[i] = *obj.Key
	}
	return keys
}

type objReader struct {
	name string
	size int64
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

func (o *objReader) Meta() map[string]interface{} {
	return map[string]interface{}{"size": o.size}
}

// NextReader implements otgraph.RawSource.
func (rs *RawSource) NextReader() (otgraph.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.objects) {
		return nil, io.EOF
	}
	obj := rs.objects[idx]

	result, err := rs.s3.GetObjectWithContext(rs.ctx, &s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    aws.String(*obj.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", *obj.Key)
	}
	return &objReader{name: *obj.Key, size: aws.Int64Value(obj.Size), body: result.Body}, nil
}

// Opener finds each dataset under <prefix>/<dataset>/ in bucket.
func Opener(client s3iface.S3API, bucket, prefix string) otgraph.RawSourceOpener {
	return func(ctx context.Context, d *otgraph.Dataset) (otgraph.RawSource, error) {
		p := path.Join(prefix, d.Name()) + "/"
		rs, err := NewRawSource(ctx, client, bucket, strings.TrimPrefix(p, "/"))
		if err != nil {
			return nil, err
		}
		if len(rs.objects) == 0 {
			return nil, errors.Errorf("no objects for dataset %s under s3://%s/%s", d.Name(), bucket, p)
		}
		return rs, nil
	}
}

// NewRowSource returns an otgraph.RowSource reading datasets from bucket.
func NewRowSource(client s3iface.S3API, bucket, prefix string) otgraph.RowSource {
	return json.NewRowSource(Opener(client, bucket, prefix))
}
