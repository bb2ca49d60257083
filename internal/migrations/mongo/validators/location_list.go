package validators

import "go.mongodb.org/mongo-driver/bson"

var LocationListValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"trip_id",
			"name",
			"locations",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"trip_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"locations": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "name"},
					"properties": bson.M{
						"id": bson.M{
							"bsonType":  "string",
							"minLength": 1,
						},
						"name": bson.M{
							"bsonType":  "string",
							"minLength": 1,
							"maxLength": 200,
						},
						"lat": bson.M{
							"bsonType": []string{"double", "int", "long", "decimal"},
							"minimum":  -90,
							"maximum":  90,
						},
						"lng": bson.M{
							"bsonType": []string{"double", "int", "long", "decimal"},
							"minimum":  -180,
							"maximum":  180,
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
