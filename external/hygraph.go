package external

import "github.com/machinebox/graphql"

func NewHygraphClient(endpoint string) *graphql.Client {
	return graphql.NewClient(endpoint)
}
