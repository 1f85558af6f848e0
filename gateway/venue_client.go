package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"market-keeper-go/order"
)

// VenueClient 带签名的交易所 REST 客户端；默认不发起真实网络调用，
// HTTPClient 可注入 httptest。实现 engine.Venue。
type VenueClient struct {
	BaseURL    string
	APIKey     string
	Secret     string
	Account    string // 自有订单归属账户
	HTTPClient *http.Client
	Limiter    RateLimiter
}

type orderView struct {
	ID         string  `json:"id"`
	Owner      string  `json:"owner"`
	SellAsset  string  `json:"sellAsset"`
	SellAmount float64 `json:"sellAmount"`
	BuyAsset   string  `json:"buyAsset"`
	BuyAmount  float64 `json:"buyAmount"`
}

type placeResp struct {
	OrderID string `json:"orderId"`
}

type balanceResp struct {
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`
}

// GetOwnOrders 调用 /v1/orders 查询自有挂单。
func (c *VenueClient) GetOwnOrders(ctx context.Context) ([]order.Order, error) {
	var views []orderView
	if err := c.do(ctx, http.MethodGet, "/v1/orders", map[string]string{"owner": c.Account}, &views); err != nil {
		return nil, fmt.Errorf("get own orders: %w", err)
	}
	orders := make([]order.Order, 0, len(views))
	for _, v := range views {
		orders = append(orders, order.Order{
			ID:         v.ID,
			Owner:      v.Owner,
			SellAsset:  v.SellAsset,
			SellAmount: v.SellAmount,
			BuyAsset:   v.BuyAsset,
			BuyAmount:  v.BuyAmount,
		})
	}
	return order.OwnedBy(orders, c.Account), nil
}

// GetBalance 调用 /v1/balances/{asset} 查询可用余额。
func (c *VenueClient) GetBalance(ctx context.Context, asset string) (float64, error) {
	var resp balanceResp
	path := "/v1/balances/" + url.PathEscape(asset)
	if err := c.do(ctx, http.MethodGet, path, map[string]string{"owner": c.Account}, &resp); err != nil {
		return 0, fmt.Errorf("get balance %s: %w", asset, err)
	}
	return resp.Amount, nil
}

// Place 调用 /v1/orders 挂单。
func (c *VenueClient) Place(ctx context.Context, haveAsset string, haveAmount float64, wantAsset string, wantAmount float64) (string, error) {
	params := map[string]string{
		"owner":      c.Account,
		"haveAsset":  haveAsset,
		"haveAmount": formatAmount(haveAmount),
		"wantAsset":  wantAsset,
		"wantAmount": formatAmount(wantAmount),
	}
	var resp placeResp
	if err := c.do(ctx, http.MethodPost, "/v1/orders", params, &resp); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	if resp.OrderID == "" {
		return "", fmt.Errorf("place order: empty orderId")
	}
	return resp.OrderID, nil
}

// Cancel 调用 /v1/orders/{id} 撤单。订单已经不存在时视为成功：
// 重复撤单在对账模型里必须是空操作。
func (c *VenueClient) Cancel(ctx context.Context, orderID string) error {
	path := "/v1/orders/" + url.PathEscape(orderID)
	err := c.do(ctx, http.MethodDelete, path, map[string]string{"owner": c.Account}, nil)
	if err != nil {
		var se statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusGone) {
			return nil
		}
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("venue status %d", e.code)
}

func (c *VenueClient) do(ctx context.Context, method, path string, params map[string]string, out interface{}) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	query, sig := SignParams(params, c.Secret)
	endpoint := c.BaseURL + path + "?" + query + "&signature=" + url.QueryEscape(sig)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-VENUE-APIKEY", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError{code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// signNow 提取出来方便测试固定时间戳
var signNow = time.Now

// SignParams 对参数按键排序后拼接并做 HMAC-SHA256 签名。
func SignParams(params map[string]string, secret string) (query, signature string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, k := range keys {
		values.Set(k, params[k])
	}
	values.Set("timestamp", strconv.FormatInt(signNow().UnixMilli(), 10))
	query = values.Encode()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return query, hex.EncodeToString(mac.Sum(nil))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
