// Package rankdex provides a Go client for the rankdex product search API.
//
// Search returns results in relevance-ordered batches; each batch carries a
// signed continuation token for the next one:
//
//	client, _ := rankdex.New("http://localhost:8080",
//	    rankdex.WithAPIKey("secret"),
//	)
//	batch, _ := client.Search(ctx, rankdex.SearchRequest{
//	    Query:     "dry red wine for a steak dinner",
//	    BatchSize: 20,
//	})
//	for batch.HasMore {
//	    batch, _ = client.Continue(ctx, batch.NextToken, 20)
//	}
//
// Hard filters narrow the candidate pool before ranking:
//
//	batch, _ := client.Search(ctx, rankdex.SearchRequest{
//	    Query: "rioja",
//	    Filters: &rankdex.Filters{
//	        Must: []rankdex.FilterCondition{
//	            {Key: "category", Match: "wine"},
//	            {Key: "price", Range: &rankdex.RangeFilter{LTE: rankdex.Float(25)}},
//	        },
//	    },
//	})
//
// Operational endpoints expose the AI circuit breakers and service health:
//
//	breakers, _ := client.Breakers(ctx)
//	_ = client.ResetBreaker(ctx, "rerank")
//	health, _ := client.Health(ctx)
package rankdex
