package external

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

func NewClerkUserClient(secretKey string) *user.Client {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	return user.NewClient(config)
}
