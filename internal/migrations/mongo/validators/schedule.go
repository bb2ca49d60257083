package validators

import "go.mongodb.org/mongo-driver/bson"

var ScheduleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"trip_id",
			"schedule_data",
			"version",
			"created_at",
			"updated_at",
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

			"version": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"schedule_data": bson.M{
				"bsonType": "object",
				"required": []string{"days"},
				"properties": bson.M{
					"days": bson.M{
						"bsonType": "array",
						"items": bson.M{
							"bsonType": "object",
							"required": []string{"day_id", "locations"},
							"properties": bson.M{
								"day_id": bson.M{
									"bsonType": "string",
									"pattern":  "^day-[0-9]+$",
								},
								"date": bson.M{
									"bsonType": "date",
								},
								"locations": bson.M{
									"bsonType": "array",
									"items": bson.M{
										"bsonType": "object",
										"required": []string{"id", "name", "type"},
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
											"type": bson.M{
												"enum": []string{"location"},
											},
										},
									},
								},
							},
						},
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
