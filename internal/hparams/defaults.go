package hparams

// Default returns the built-in schema used when neither a schema file nor the
// training service provides one. Defaults mirror the service's own training
// and LoRA defaults.
func Default() Schema {
	return Schema{Groups: []GroupSpec{
		{Name: "training_params", Params: []Spec{
			{Key: "num_train_epochs", Min: 1, Max: 10, Default: 1, Description: "Number of full passes over the training dataset."},
			{Key: "per_device_train_batch_size", Min: 1, Max: 32, Default: 4, Description: "Examples processed per device in each training step."},
			{Key: "learning_rate", Min: 0.00001, Max: 0.001, Default: 0.0002, Description: "Initial optimizer learning rate."},
			{Key: "weight_decay", Min: 0, Max: 0.1, Default: 0.001, Description: "Weight decay applied to all non-bias parameters."},
			{Key: "warmup_ratio", Min: 0, Max: 0.5, Default: 0.03, Description: "Fraction of steps used for linear learning rate warmup."},
		}},
		{Name: "lora_config", Params: []Spec{
			{Key: "r", Min: 4, Max: 128, Default: 64, Description: "Rank of the LoRA update matrices."},
			{Key: "lora_alpha", Min: 1, Max: 64, Default: 16, Description: "Scaling factor for the LoRA updates."},
			{Key: "lora_dropout", Min: 0, Max: 0.5, Default: 0.1, Description: "Dropout probability applied to LoRA layers."},
		}},
	}}
}
