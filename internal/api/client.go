package api

import "net/url"

// Client はGateway上に各リソースの型付き操作を提供する。
// すべての操作はゲートウェイのリクエストパイプライン（bearer付与、
// 401時の1回限りのリフレッシュ再送）を経由する。
type Client struct {
	gw *Gateway
}

// NewClient はClientを生成する。
func NewClient(gw *Gateway) *Client {
	return &Client{gw: gw}
}

// Gateway は下層のゲートウェイを返す。認証フローなど、リソース操作に
// 該当しない呼び出しで使用する。
func (c *Client) Gateway() *Gateway {
	return c.gw
}

// escape はパスセグメントに埋め込むIDをエスケープする。
func escape(id string) string {
	return url.PathEscape(id)
}
