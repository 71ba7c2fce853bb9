package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "products"

// buildIndexMapping returns the full JSON mapping for the products index.
// Name gets an autocomplete subfield; price is a double so range filters work
// on fractional values.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "sku":         { "type": "keyword" },
      "name":        { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description": { "type": "text" },
      "price":       { "type": "double" },
      "category":    { "type": "keyword" },
      "status":      { "type": "keyword" },
      "image_url":   { "type": "keyword", "index": false },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" },
      "deleted_at":  { "type": "date" }
    }
  }
}`
}
