package query

// Re-export read models from readmodel package
import "github.com/example/ujyalokhet-storefront/internal/readmodel"

type CartItemReadModel = readmodel.CartItemReadModel
type CartReadModel = readmodel.CartReadModel
type OrderItemReadModel = readmodel.OrderItemReadModel
type OrderReadModel = readmodel.OrderReadModel
type AddressReadModel = readmodel.AddressReadModel
