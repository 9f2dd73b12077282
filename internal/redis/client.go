package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

// NewClientFromAddr connects without a URL; tests point it at miniredis.
func NewClientFromAddr(addr string) *Client {
	return &Client{redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ContentChannel is the pub/sub channel for content changes of one property.
func ContentChannel(propertyID string) string {
	return fmt.Sprintf("content:%s", propertyID)
}

// LinkTokenKey marks an emailed link token as consumed.
func LinkTokenKey(tokenID string) string {
	return fmt.Sprintf("linktoken:used:%s", tokenID)
}
