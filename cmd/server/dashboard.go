// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard configures the statistics routes. The single `/stats` endpoint
// reports run counts and per-phase completion totals over the in-memory
// run store.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, state.pipelineService.Stats())
		})
	}
}
